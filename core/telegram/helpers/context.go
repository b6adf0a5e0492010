package helpers

import (
	"context"

	"github.com/m3rciful/lexibot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey = "lexibot.ctx"
	ridKey = "rid"
)

// Meta identifies the update behind a tele.Context. Zero IDs mean the
// update carried no sender or chat.
type Meta struct {
	UpdateID int
	UserID   int64
	ChatID   int64
	RID      string
}

// MetaOf extracts identifiers from c, reusing the rid stored by the logging
// middleware when present.
func MetaOf(c tele.Context) Meta {
	m := Meta{UpdateID: c.Update().ID}
	if u := c.Sender(); u != nil {
		m.UserID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		m.ChatID = ch.ID
	}
	m.RID, _ = c.Get(ridKey).(string)
	if m.RID == "" {
		m.RID = logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
	}
	return m
}

// NewContext builds a fresh service context for c and caches it on c.
func NewContext(c tele.Context) (context.Context, Meta) {
	m := MetaOf(c)
	c.Set(ridKey, m.RID)
	ctx := logger.WithRID(context.Background(), m.RID)
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx, m
}

// StoreContext replaces the cached service context of c.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// BuildContext returns the cached service context of c, creating it on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	ctx, _ := NewContext(c)
	return ctx
}

// WithHandler tags the cached context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}
