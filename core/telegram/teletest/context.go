// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Outgoing is a message captured by Context.
type Outgoing struct {
	Kind string
	What any
	Opts []any
}

// Text returns the captured message body when it is a string.
func (o Outgoing) Text() string {
	s, _ := o.What.(string)
	return s
}

// Markup returns the reply markup attached to the message, if any.
func (o Outgoing) Markup() *tele.ReplyMarkup {
	for _, opt := range o.Opts {
		switch v := opt.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			return v
		}
	}
	return nil
}

// Context implements the parts of tele.Context used by handlers. Calling any
// other method panics through the nil embedded interface.
type Context struct {
	tele.Context

	Upd tele.Update

	mu        sync.Mutex
	store     map[string]any
	out       []Outgoing
	responses []*tele.CallbackResponse
	// SendErr is returned by every send when set.
	SendErr error
}

// NewText builds a context for a private text message.
func NewText(updateID int, userID int64, text string) *Context {
	user := &tele.User{ID: userID, Username: "tester"}
	return &Context{Upd: tele.Update{
		ID: updateID,
		Message: &tele.Message{
			ID:     updateID,
			Sender: user,
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		},
	}}
}

// NewDocument builds a context for a private document message.
func NewDocument(updateID int, userID int64) *Context {
	c := NewText(updateID, userID, "")
	c.Upd.Message.Document = &tele.Document{FileName: "words.txt"}
	return c
}

// NewCallback builds a context for an inline button press whose Unique was
// already resolved by telebot.
func NewCallback(updateID int, userID int64, unique, data string) *Context {
	user := &tele.User{ID: userID, Username: "tester"}
	chat := &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	return &Context{Upd: tele.Update{
		ID: updateID,
		Callback: &tele.Callback{
			ID:      "cb",
			Sender:  user,
			Unique:  unique,
			Data:    data,
			Message: &tele.Message{ID: 1, Chat: chat, Sender: user},
		},
	}}
}

func (c *Context) Update() tele.Update { return c.Upd }

func (c *Context) Message() *tele.Message {
	switch {
	case c.Upd.Message != nil:
		return c.Upd.Message
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.Upd.Callback }

func (c *Context) Query() *tele.Query { return c.Upd.Query }

func (c *Context) Sender() *tele.User {
	switch {
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Sender
	case c.Upd.Message != nil:
		return c.Upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Text() string {
	if c.Upd.Message != nil {
		return c.Upd.Message.Text
	}
	return ""
}

func (c *Context) Data() string {
	if c.Upd.Callback != nil {
		return c.Upd.Callback.Data
	}
	return ""
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

func (c *Context) record(kind string, what any, opts []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.out = append(c.out, Outgoing{Kind: kind, What: what, Opts: opts})
	return nil
}

func (c *Context) Send(what any, opts ...any) error { return c.record("send", what, opts) }

func (c *Context) Reply(what any, opts ...any) error { return c.record("reply", what, opts) }

func (c *Context) Edit(what any, opts ...any) error { return c.record("edit", what, opts) }

func (c *Context) EditOrSend(what any, opts ...any) error {
	if c.Upd.Callback != nil {
		return c.record("edit", what, opts)
	}
	return c.record("send", what, opts)
}

func (c *Context) EditOrReply(what any, opts ...any) error { return c.EditOrSend(what, opts...) }

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &tele.CallbackResponse{}
	if len(resp) > 0 && resp[0] != nil {
		r = resp[0]
	}
	c.responses = append(c.responses, r)
	return nil
}

// Outgoing returns a copy of captured messages.
func (c *Context) Outgoing() []Outgoing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Outgoing(nil), c.out...)
}

// Responses returns a copy of captured callback answers.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}
