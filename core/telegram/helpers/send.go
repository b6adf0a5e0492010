package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/lexibot/core/logger"
	"github.com/m3rciful/lexibot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const respondedKey = "cb_responded"

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

type queueCounter interface {
	Queued(hasKB bool)
	Unwrap() tele.Context
}

func sendAsync(c tele.Context, action, endpoint string, hasKB bool, run func(tele.Context) error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run(c)
	}

	var key int64
	if chat := c.Chat(); chat != nil {
		key = chat.ID
	} else if user := c.Sender(); user != nil {
		key = user.ID
	}

	target := c
	if qc, ok := c.(queueCounter); ok {
		target = qc.Unwrap()
	}
	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, key, action, endpoint, func() error { return run(target) })
	switch {
	case err == nil:
		if qc, ok := c.(queueCounter); ok {
			qc.Queued(hasKB)
		}
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run(c)
	default:
		return err
	}
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	hasKB := sendOpts != nil && sendOpts.ReplyMarkup != nil
	return sendAsync(c, "send.text", "sendMessage", hasKB, func(tc tele.Context) error {
		if sendOpts != nil {
			return tc.Send(text, sendOpts)
		}
		return tc.Send(text)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, mdOptions(markup))
}

// EditMD edits the message the callback belongs to, falling back to a new
// message when there is nothing to edit.
func EditMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := mdOptions(markup)
	return sendAsync(c, "edit.text", "editMessageText", opts.ReplyMarkup != nil, func(tc tele.Context) error {
		return tc.EditOrSend(text, opts)
	})
}

func mdOptions(markup []*tele.ReplyMarkup) *tele.SendOptions {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm}
}

// Notify answers the pending callback query with a toast. Only the first
// answer for an update reaches Telegram; later calls are no-ops.
func Notify(c tele.Context, text string) error {
	if c.Callback() == nil || Responded(c) {
		return nil
	}
	c.Set(respondedKey, true)
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Acknowledge answers the pending callback query without text if nothing answered it yet.
func Acknowledge(c tele.Context) error {
	if c.Callback() == nil || Responded(c) {
		return nil
	}
	c.Set(respondedKey, true)
	return c.Respond()
}

// Responded reports whether the callback of this update was already answered.
func Responded(c tele.Context) bool {
	v, _ := c.Get(respondedKey).(bool)
	return v
}
