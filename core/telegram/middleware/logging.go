package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/lexibot/core/logger"
	"github.com/m3rciful/lexibot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/lexibot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenWindow remembers the last few update IDs so a receipt is logged once
// even when the middleware wraps several handler groups.
type seenWindow struct {
	mu   sync.Mutex
	ids  []int
	next int
	set  map[int]struct{}
}

func newSeenWindow(size int) *seenWindow {
	return &seenWindow{ids: make([]int, 0, size), set: make(map[int]struct{}, size)}
}

// firstSighting records id and reports whether it was new.
func (w *seenWindow) firstSighting(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.set[id]; ok {
		return false
	}
	if len(w.ids) < cap(w.ids) {
		w.ids = append(w.ids, id)
	} else {
		delete(w.set, w.ids[w.next])
		w.ids[w.next] = id
		w.next = (w.next + 1) % len(w.ids)
	}
	w.set[id] = struct{}{}
	return true
}

var receipts = newSeenWindow(512)

// LoggerMiddleware assigns the rid and service context of every update and
// logs a sampled debug receipt.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set("update_start", time.Now())
		ctx, meta := tghelpers.NewContext(c)

		if logger.ShouldSampleDebug() && receipts.firstSighting(meta.UpdateID) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
