package bot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lexibot/app/conversation"
	"github.com/m3rciful/lexibot/app/words"
	"github.com/m3rciful/lexibot/core/database"
	tg "github.com/m3rciful/lexibot/core/telegram"
	"github.com/m3rciful/lexibot/core/telegram/router"
	"github.com/m3rciful/lexibot/core/telegram/teletest"
	"github.com/m3rciful/lexibot/core/telegram/ui"
	"github.com/m3rciful/lexibot/migrations"
)

const uid int64 = 55

type fakeStats struct {
	st  words.Stats
	err error
}

func (f fakeStats) Stats(context.Context) (words.Stats, error) { return f.st, f.err }

type harness struct {
	store    *words.Store
	text     tele.HandlerFunc
	document tele.HandlerFunc
	callback tele.HandlerFunc
	commands map[string]tele.HandlerFunc
}

func newHarness(t *testing.T, stats StatsSource) *harness {
	t.Helper()
	cfg := database.Config{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "words.db")}
	require.NoError(t, cfg.Normalize())
	require.NoError(t, database.RunMigrations(cfg, migrations.FS()))
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := words.NewStore(db)
	b := New(conversation.New(store, conversation.Options{}), stats)
	reg := tg.NewRegistry()
	require.NoError(t, b.Register(reg))

	textOpts, cbOpts := ui.RouteOptions(b)
	routes := router.TextRoutes(b, reg, textOpts)
	cmds := map[string]tele.HandlerFunc{}
	for _, r := range router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: 1}) {
		cmds[r.Endpoint.(string)] = r.Handler
	}
	return &harness{
		store:    store,
		text:     routes[0].Handler,
		document: routes[1].Handler,
		callback: router.CallbackRoute(reg, cbOpts).Handler,
		commands: cmds,
	}
}

func (h *harness) say(t *testing.T, id int, text string) *teletest.Context {
	t.Helper()
	c := teletest.NewText(id, uid, text)
	require.NoError(t, h.text(c))
	return c
}

// press sends the raw callback data telebot hands to the generic callback endpoint.
func (h *harness) press(t *testing.T, id int, btn tele.InlineButton) *teletest.Context {
	t.Helper()
	c := teletest.NewCallback(id, uid, "", "\f"+btn.Unique+"|"+btn.Data)
	require.NoError(t, h.callback(c))
	return c
}

func findButton(t *testing.T, out teletest.Outgoing, unique, data string) tele.InlineButton {
	t.Helper()
	m := out.Markup()
	require.NotNil(t, m)
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			if b.Unique == unique && b.Data == data {
				return b
			}
		}
	}
	t.Fatalf("button %s|%s not found", unique, data)
	return tele.InlineButton{}
}

func TestRegisterCommandsAndCallbacks(t *testing.T) {
	reg := tg.NewRegistry()
	b := New(conversation.New(nil, conversation.Options{}), fakeStats{})
	require.NoError(t, b.Register(reg))

	var visible []string
	for _, c := range reg.ListCommands(true) {
		visible = append(visible, c.Text)
	}
	assert.Equal(t, []string{"/about", "/addword", "/cancel", "/list", "/start"}, visible)
	assert.Len(t, reg.ListCommands(false), 6)
	assert.Equal(t, []string{"browse", "edit", "pos"}, reg.ListCallbacks())

	// A second registration collides on callback keys.
	assert.Error(t, b.Register(reg))
}

func TestAddWordThroughTelegram(t *testing.T) {
	h := newHarness(t, nil)

	c := h.say(t, 1, "book: книга")
	out := c.Outgoing()
	require.Len(t, out, 1)
	assert.Equal(t, "send", out[0].Kind)
	assert.Equal(t, "What part of speech is *book*?", out[0].Text())
	noun := findButton(t, out[0], "pos", "noun")

	cb := h.press(t, 2, noun)
	out = cb.Outgoing()
	require.Len(t, out, 1)
	assert.Equal(t, "edit", out[0].Kind)
	assert.Equal(t, "✅ Saved: *book* (noun)", out[0].Text())
	assert.Nil(t, out[0].Markup())
	require.Len(t, cb.Responses(), 1)

	got, err := h.store.ListAll(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, []words.Entry{{Word: "book", PartOfSpeech: words.Noun, Translation: "книга"}}, got)
}

func TestBrowseThroughTelegram(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.store.Insert(ctx, uid, words.Entry{Word: "apple", PartOfSpeech: words.Noun}))
	require.NoError(t, h.store.Insert(ctx, uid, words.Entry{Word: "book", PartOfSpeech: words.Noun}))

	c := h.say(t, 1, "/list")
	out := c.Outgoing()
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Text(), "1 / 2")
	prev := findButton(t, out[0], "browse", "prev")
	next := findButton(t, out[0], "browse", "next")

	cb := h.press(t, 2, prev)
	assert.Empty(t, cb.Outgoing())
	require.Len(t, cb.Responses(), 1)
	assert.Equal(t, conversation.TextFirstWord, cb.Responses()[0].Text)

	cb = h.press(t, 3, next)
	require.Len(t, cb.Outgoing(), 1)
	assert.Equal(t, "edit", cb.Outgoing()[0].Kind)
	assert.Contains(t, cb.Outgoing()[0].Text(), "*book*")
	require.Len(t, cb.Responses(), 1)
	assert.Empty(t, cb.Responses()[0].Text)

	// Text while browsing is ignored by the engine.
	c = h.say(t, 4, "pear")
	assert.Empty(t, c.Outgoing())
}

func TestDeleteShowsToastAndCard(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.store.Insert(ctx, uid, words.Entry{Word: "apple", PartOfSpeech: words.Noun}))
	require.NoError(t, h.store.Insert(ctx, uid, words.Entry{Word: "book", PartOfSpeech: words.Noun}))

	c := h.say(t, 1, "/list")
	del := findButton(t, c.Outgoing()[0], "browse", "delete")

	cb := h.press(t, 2, del)
	require.Len(t, cb.Responses(), 1)
	assert.Equal(t, conversation.TextDeleted, cb.Responses()[0].Text)
	require.Len(t, cb.Outgoing(), 1)
	assert.Contains(t, cb.Outgoing()[0].Text(), "*book*")
}

func TestFallbacks(t *testing.T) {
	h := newHarness(t, nil)

	c := h.say(t, 1, "/unknown")
	require.Len(t, c.Outgoing(), 1)
	assert.Equal(t, TextUnknownCommand, c.Outgoing()[0].Text())

	doc := teletest.NewDocument(2, uid)
	require.NoError(t, h.document(doc))
	require.Len(t, doc.Outgoing(), 1)
	assert.Equal(t, conversation.TextSendText, doc.Outgoing()[0].Text())

	cb := teletest.NewCallback(3, uid, "", "\fmystery|x")
	require.NoError(t, h.callback(cb))
	require.Len(t, cb.Responses(), 1)
	assert.Equal(t, conversation.TextUnknownAction, cb.Responses()[0].Text)
}

func TestCommands(t *testing.T) {
	h := newHarness(t, nil)

	c := h.say(t, 1, "/start")
	require.Len(t, c.Outgoing(), 1)
	assert.Equal(t, conversation.TextGreeting, c.Outgoing()[0].Text())

	c = h.say(t, 2, "/add")
	assert.Equal(t, conversation.TextAddHint, c.Outgoing()[0].Text())

	c = h.say(t, 3, "/about")
	assert.Equal(t, conversation.TextAbout, c.Outgoing()[0].Text())

	h.say(t, 4, "pending")
	c = h.say(t, 5, "/cancel")
	assert.Equal(t, conversation.TextCancelled, c.Outgoing()[0].Text())

	c = h.say(t, 6, "/list")
	assert.Equal(t, conversation.TextEmptyDictionary, c.Outgoing()[0].Text())
}

func TestStatsAdminOnly(t *testing.T) {
	h := newHarness(t, fakeStats{st: words.Stats{Users: 3, Words: 12}})
	stats := h.commands["/stats"]
	require.NotNil(t, stats)

	c := teletest.NewText(1, uid, "/stats")
	require.NoError(t, stats(c))
	assert.Empty(t, c.Outgoing())

	c = teletest.NewText(2, 1, "/stats")
	require.NoError(t, stats(c))
	require.Len(t, c.Outgoing(), 1)
	assert.Equal(t, "📊 Users: 3\nWords: 12", c.Outgoing()[0].Text())

	h = newHarness(t, fakeStats{err: errors.New("down")})
	c = teletest.NewText(3, 1, "/stats")
	require.NoError(t, h.commands["/stats"](c))
	assert.Equal(t, conversation.TextFailure, c.Outgoing()[0].Text())
}

func TestMarkupDropsOversizedButtons(t *testing.T) {
	long := make([]byte, 70)
	for i := range long {
		long[i] = 'x'
	}
	m := Markup([][]conversation.Button{
		{{Label: "ok", Action: "browse.next"}, {Label: "huge", Action: "browse." + string(long)}},
	})
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 1)
	require.Len(t, m.InlineKeyboard[0], 1)
	assert.Equal(t, "next", m.InlineKeyboard[0][0].Data)

	assert.Nil(t, Markup(nil))
}
