// Package bot connects the conversation engine to Telegram updates.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/lexibot/app/conversation"
	"github.com/m3rciful/lexibot/app/words"
	"github.com/m3rciful/lexibot/core/logger"
	tg "github.com/m3rciful/lexibot/core/telegram"
	"github.com/m3rciful/lexibot/core/telegram/callbacks"
	"github.com/m3rciful/lexibot/core/telegram/commands"
	tghelpers "github.com/m3rciful/lexibot/core/telegram/helpers"
	"github.com/m3rciful/lexibot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// TextUnknownCommand answers slash commands nobody registered.
const TextUnknownCommand = "Unknown command. Send /start to see what I can do."

// StatsSource reports dictionary totals for the admin command.
type StatsSource interface {
	Stats(ctx context.Context) (words.Stats, error)
}

// Bot routes updates into the engine and renders its answers.
type Bot struct {
	engine *conversation.Engine
	stats  StatsSource
}

// New builds the adapter. stats may be nil, which disables /stats.
func New(engine *conversation.Engine, stats StatsSource) *Bot {
	return &Bot{engine: engine, stats: stats}
}

// Register adds commands, callbacks and the text fallback to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{Handler: b.onStart, Description: "Start and show help"})
	reg.RegisterCommand("/list", commands.Command{Handler: b.onList, Description: "Browse your dictionary"})
	reg.RegisterCommand("/addword", commands.Command{Handler: b.onAddWord, Description: "Add a new word", Aliases: []string{"add"}})
	reg.RegisterCommand("/cancel", commands.Command{Handler: b.onCancel, Description: "Cancel the current action"})
	reg.RegisterCommand("/about", commands.Command{Handler: b.onAbout, Description: "About this bot"})
	if b.stats != nil {
		reg.RegisterCommand("/stats", commands.Command{Handler: b.onStats, Description: "Dictionary totals", AdminOnly: true, Hidden: true})
	}

	for _, group := range conversation.Groups {
		if err := reg.RegisterCallback(group, b.HandleButton); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(b.UnknownCallback())
	reg.SetTextFallback(b.HandleText)
	return nil
}

// InProgress reports whether the user is inside a flow.
func (b *Bot) InProgress(userID int64) bool {
	return b.engine.InProgress(userID)
}

// ManagerHandler feeds text of users inside a flow to the engine.
func (b *Bot) ManagerHandler(c tele.Context) error {
	return b.HandleText(c)
}

// HandleText feeds a text message to the engine. Unregistered commands get a hint.
func (b *Bot) HandleText(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(c.Text()), "/") && !b.engine.InProgress(user.ID) {
		return b.UnknownText()(c)
	}
	out := b.engine.Handle(tghelpers.BuildContext(c), conversation.Event{
		UserID:  user.ID,
		Kind:    conversation.KindText,
		Payload: c.Text(),
	})
	return deliver(c, out)
}

// HandleButton feeds an inline button press to the engine.
func (b *Bot) HandleButton(c tele.Context) error {
	user := c.Sender()
	if user == nil || c.Callback() == nil {
		return nil
	}
	out := b.engine.Handle(tghelpers.BuildContext(c), conversation.Event{
		UserID:  user.ID,
		Kind:    conversation.KindButton,
		Payload: callbacks.Action(c),
	})
	return deliver(c, out)
}

// UnknownText answers unregistered commands.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, TextUnknownCommand)
	}
}

// UnknownDocument answers files and stickers.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, conversation.TextSendText)
	}
}

// UnknownCallback answers buttons with no registered group.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.Notify(c, conversation.TextUnknownAction)
	}
}

func (b *Bot) onStart(c tele.Context) error {
	return b.withUser(c, b.engine.Start)
}

func (b *Bot) onList(c tele.Context) error {
	return b.withUser(c, b.engine.List)
}

func (b *Bot) onCancel(c tele.Context) error {
	return b.withUser(c, b.engine.Cancel)
}

func (b *Bot) onAddWord(c tele.Context) error {
	return tghelpers.SendMD(c, conversation.TextAddHint)
}

func (b *Bot) onAbout(c tele.Context) error {
	return tghelpers.SendMD(c, conversation.TextAbout)
}

func (b *Bot) onStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := b.stats.Stats(ctx)
	if err != nil {
		return tghelpers.SendText(c, conversation.TextFailure)
	}
	return tghelpers.SendText(c, conversation.StatsText(st))
}

func (b *Bot) withUser(c tele.Context, fn func(context.Context, int64) []conversation.Render) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	return deliver(c, fn(tghelpers.BuildContext(c), user.ID))
}

// deliver sends renders in order. Notices become callback toasts, or plain
// messages when there is no callback to answer.
func deliver(c tele.Context, out []conversation.Render) error {
	var errs []error
	for _, r := range out {
		isCallback := c.Callback() != nil
		var err error
		switch {
		case r.Mode == conversation.Notice && isCallback:
			err = tghelpers.Notify(c, r.Text)
		case r.Mode == conversation.EditExisting && isCallback:
			err = tghelpers.EditMD(c, r.Text, Markup(r.Buttons))
		default:
			err = tghelpers.SendMD(c, r.Text, Markup(r.Buttons))
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Markup converts button rows to an inline keyboard. Buttons whose callback
// data would exceed the Telegram limit are dropped.
func Markup(rows [][]conversation.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, btn := range row {
			unique, payload := callbacks.SplitAction(btn.Action)
			ib := keyboard.InlineBtn{Text: btn.Label, Unique: unique, Data: payload}
			if !ib.Fits() {
				logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, "button.dropped",
					slog.String("cb_key", unique),
					slog.String("cause", "callback_data_too_long"),
				)
				continue
			}
			r = append(r, ib)
		}
		kb = append(kb, r)
	}
	return keyboard.InlineButtonsRows(kb...)
}
