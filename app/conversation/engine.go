// Package conversation runs the per-user dialogue that adds, browses, edits
// and deletes dictionary entries.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/lexibot/app/browse"
	"github.com/m3rciful/lexibot/app/words"
	"github.com/m3rciful/lexibot/core/logger"
	"github.com/m3rciful/lexibot/core/telegram/state"
)

// Store is the persistence the engine needs. Every call is scoped to one user.
type Store interface {
	ListAll(ctx context.Context, userID int64) ([]words.Entry, error)
	Exists(ctx context.Context, userID int64, word string) (bool, error)
	Insert(ctx context.Context, userID int64, e words.Entry) error
	Delete(ctx context.Context, userID int64, word string) error
	Update(ctx context.Context, userID int64, oldWord string, e words.Entry) error
}

// Options tune presentation.
type Options struct {
	TranslationLimit    int
	PartOfSpeechColumns int
}

// Engine owns the session registry. Transitions for one user are serialised
// by the registry lock, including the storage calls they make.
type Engine struct {
	store    Store
	sessions *state.Registry[State]
	opts     Options
}

// New builds an engine over store.
func New(store Store, opts Options) *Engine {
	if opts.TranslationLimit <= 0 {
		opts.TranslationLimit = browse.DefaultTranslationLimit
	}
	if opts.PartOfSpeechColumns <= 0 {
		opts.PartOfSpeechColumns = 2
	}
	return &Engine{
		store:    store,
		sessions: state.NewRegistry[State](),
		opts:     opts,
	}
}

// InProgress reports whether the user is inside a flow.
func (e *Engine) InProgress(userID int64) bool {
	return e.sessions.InProgress(userID)
}

// StateName returns the user's current state name.
func (e *Engine) StateName(userID int64) string {
	s, _ := e.sessions.Get(userID)
	return stateName(s)
}

// Start abandons any flow and greets the user.
func (e *Engine) Start(ctx context.Context, userID int64) []Render {
	e.sessions.Clear(userID)
	return []Render{message(TextGreeting)}
}

// Cancel abandons any flow.
func (e *Engine) Cancel(ctx context.Context, userID int64) []Render {
	var had bool
	e.sessions.Transition(userID, func(cur State, ok bool) (State, bool) {
		had = ok
		return nil, false
	})
	if !had {
		return []Render{message(TextNothingToCancel)}
	}
	return []Render{message(TextCancelled)}
}

// List opens the browser at the first entry, replacing any flow in progress.
func (e *Engine) List(ctx context.Context, userID int64) []Render {
	var out []Render
	e.run(ctx, userID, "list", func(State) (State, bool) {
		c, ok, err := browse.Load(ctx, e.lister(userID))
		switch {
		case err != nil:
			out = []Render{message(TextFailure)}
			return nil, false
		case !ok:
			out = []Render{message(TextEmptyDictionary)}
			return nil, false
		}
		b := browsing{cursor: c}
		out = []Render{message(e.cardText(b), cardRows()...)}
		return b, true
	})
	return out
}

// Handle applies one event. A nil result means the event had no transition
// in the current state and was ignored.
func (e *Engine) Handle(ctx context.Context, ev Event) []Render {
	if ev.Kind == KindText && strings.HasPrefix(strings.TrimSpace(ev.Payload), "/") {
		return nil
	}
	var out []Render
	e.run(ctx, ev.UserID, ev.Payload, func(cur State) (State, bool) {
		var next State
		out, next = e.dispatch(ctx, cur, ev)
		return next, next != nil
	})
	return out
}

func (e *Engine) run(ctx context.Context, userID int64, input string, fn func(State) (State, bool)) {
	e.sessions.Transition(userID, func(cur State, _ bool) (State, bool) {
		next, keep := fn(cur)
		if !keep {
			next = nil
		}
		if from, to := stateName(cur), stateName(next); from != to || logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.SVCConversation, slog.LevelDebug, "transition",
				slog.Int64("user_id", userID),
				slog.String("state", from),
				slog.String("next_state", to),
				slog.String("payload", logger.SanitizeLimit(input, 64)),
			)
		}
		return next, keep
	})
}

func (e *Engine) dispatch(ctx context.Context, cur State, ev Event) ([]Render, State) {
	switch s := cur.(type) {
	case nil:
		return e.onIdle(ctx, ev)
	case awaitingPartOfSpeech:
		return e.onAwaitingPartOfSpeech(ctx, s, ev)
	case browsing:
		return e.onBrowsing(ctx, s, ev)
	case awaitingEditField:
		return e.onEditField(s, ev)
	case awaitingEditWord:
		return e.onEditWord(ctx, s, ev)
	case awaitingEditValue:
		return e.onEditValue(ctx, s, ev)
	case awaitingEditPos:
		return e.onEditPos(ctx, s, ev)
	}
	return nil, cur
}

func (e *Engine) onIdle(ctx context.Context, ev Event) ([]Render, State) {
	if ev.Kind != KindText {
		return nil, nil
	}
	word, value, _ := strings.Cut(ev.Payload, ":")
	word = strings.TrimSpace(word)
	value = strings.TrimSpace(value)
	if word == "" {
		e.rejected(ctx, ev.UserID, words.ErrEmptyWord)
		return []Render{message(TextEmptyWord)}, nil
	}

	exists, err := e.store.Exists(ctx, ev.UserID, word)
	if err != nil {
		return []Render{message(TextFailure)}, nil
	}
	if exists {
		e.rejected(ctx, ev.UserID, words.ErrDuplicate)
		return []Render{message(textDuplicate(word))}, nil
	}
	return []Render{message(textAskPartOfSpeech(word), e.posRows(ActionAddCancel)...)},
		awaitingPartOfSpeech{word: word, translation: value}
}

func (e *Engine) onAwaitingPartOfSpeech(ctx context.Context, s awaitingPartOfSpeech, ev Event) ([]Render, State) {
	if ev.Kind == KindText {
		return []Render{message(TextUseButtons)}, s
	}
	if ev.Payload == ActionAddCancel {
		return []Render{edit(TextCancelled)}, nil
	}
	pos, ok := parsePartOfSpeechAction(ev.Payload)
	if !ok {
		return nil, s
	}

	entry := words.Entry{Word: s.word, PartOfSpeech: pos, Translation: s.translation}
	switch err := e.store.Insert(ctx, ev.UserID, entry); {
	case err == nil:
		return []Render{edit(textSavedEntry(entry))}, nil
	case errors.Is(err, words.ErrDuplicate):
		e.rejected(ctx, ev.UserID, err)
		return []Render{edit(textDuplicate(s.word))}, nil
	default:
		return []Render{edit(TextFailure)}, nil
	}
}

func (e *Engine) onBrowsing(ctx context.Context, s browsing, ev Event) ([]Render, State) {
	if ev.Kind != KindButton {
		return nil, s
	}
	c := s.cursor
	switch ev.Payload {
	case ActionNext:
		return e.navigated(s, c.Next(), TextLastWord), s
	case ActionPrev:
		return e.navigated(s, c.Prev(), TextFirstWord), s
	case ActionNextLetter:
		return e.navigated(s, c.NextLetter(), TextLastLetter), s
	case ActionPrevLetter:
		return e.navigated(s, c.PrevLetter(), TextFirstLetter), s
	case ActionClose:
		return []Render{edit(TextClosed)}, nil
	case ActionEdit:
		sess := newEditSession(s)
		return []Render{edit(textEditing(sess.original, TextChooseField), editFieldRows()...)},
			awaitingEditField{sess}
	case ActionDelete:
		return e.deleteCurrent(ctx, s, ev)
	}
	return nil, s
}

func (e *Engine) navigated(s browsing, out browse.Outcome, boundary string) []Render {
	switch out {
	case browse.Moved:
		return []Render{edit(e.cardText(s), cardRows()...)}
	case browse.NoLetters:
		return []Render{notice(TextNoLetters)}
	default:
		return []Render{notice(boundary)}
	}
}

func (e *Engine) deleteCurrent(ctx context.Context, s browsing, ev Event) ([]Render, State) {
	word := s.cursor.Current().Word
	if err := e.store.Delete(ctx, ev.UserID, word); err != nil && !errors.Is(err, words.ErrNotFound) {
		return []Render{notice(TextFailure)}, s
	}
	out, err := s.cursor.RefreshAfterDeletion(ctx, e.lister(ev.UserID))
	switch {
	case err != nil:
		return []Render{edit(TextFailure)}, nil
	case out == browse.Emptied:
		return []Render{edit(TextEmptyDictionary)}, nil
	}
	return []Render{notice(TextDeleted), edit(e.cardText(s), cardRows()...)}, s
}

func (e *Engine) onEditField(s awaitingEditField, ev Event) ([]Render, State) {
	if ev.Kind != KindButton {
		return nil, s
	}
	switch ev.Payload {
	case ActionEditWord:
		return []Render{edit(textEditing(s.original, TextAskWord), editCancelRow())}, awaitingEditWord(s)
	case ActionEditMeaning:
		return []Render{edit(textEditing(s.original, TextAskMeaning), editCancelRow())}, awaitingEditValue(s)
	case ActionEditPos:
		return []Render{edit(textEditing(s.original, TextAskPartOfSpeech), e.posRows(ActionEditCancel)...)}, awaitingEditPos(s)
	case ActionEditCancel:
		return e.backToBrowsing(s.editSession, ev), s.browsing
	}
	return nil, s
}

func (e *Engine) onEditWord(ctx context.Context, s awaitingEditWord, ev Event) ([]Render, State) {
	if ev.Kind == KindButton {
		if ev.Payload == ActionEditCancel {
			return e.backToBrowsing(s.editSession, ev), s.browsing
		}
		return nil, s
	}
	word := strings.TrimSpace(ev.Payload)
	if word == "" {
		e.rejected(ctx, ev.UserID, words.ErrEmptyWord)
		return []Render{message(TextEmptyWord)}, s
	}
	if words.Key(word) != words.Key(s.original.Word) {
		exists, err := e.store.Exists(ctx, ev.UserID, word)
		if err != nil {
			return append([]Render{message(TextFailure)}, e.backToBrowsing(s.editSession, ev)...), s.browsing
		}
		if exists {
			e.rejected(ctx, ev.UserID, words.ErrDuplicate)
			return append([]Render{message(textDuplicate(word))}, e.backToBrowsing(s.editSession, ev)...), s.browsing
		}
	}
	s.staged.Word = word
	return e.saveEdit(ctx, s.editSession, ev)
}

func (e *Engine) onEditValue(ctx context.Context, s awaitingEditValue, ev Event) ([]Render, State) {
	if ev.Kind == KindButton {
		if ev.Payload == ActionEditCancel {
			return e.backToBrowsing(s.editSession, ev), s.browsing
		}
		return nil, s
	}
	value := strings.TrimSpace(ev.Payload)
	if value == "-" {
		value = ""
	}
	s.staged.Translation = value
	return e.saveEdit(ctx, s.editSession, ev)
}

func (e *Engine) onEditPos(ctx context.Context, s awaitingEditPos, ev Event) ([]Render, State) {
	if ev.Kind != KindButton {
		return nil, s
	}
	if ev.Payload == ActionEditCancel {
		return e.backToBrowsing(s.editSession, ev), s.browsing
	}
	pos, ok := parsePartOfSpeechAction(ev.Payload)
	if !ok {
		return nil, s
	}
	s.staged.PartOfSpeech = pos
	return e.saveEdit(ctx, s.editSession, ev)
}

// saveEdit persists the staged entry and returns to browsing in every case.
func (e *Engine) saveEdit(ctx context.Context, s editSession, ev Event) ([]Render, State) {
	if !s.changed() {
		return append([]Render{notice(TextNoChanges)}, e.backToBrowsing(s, ev)...), s.browsing
	}
	switch err := e.store.Update(ctx, ev.UserID, s.original.Word, s.staged); {
	case errors.Is(err, words.ErrDuplicate):
		e.rejected(ctx, ev.UserID, err)
		return append([]Render{message(textDuplicate(s.staged.Word))}, e.backToBrowsing(s, ev)...), s.browsing
	case err != nil:
		return append([]Render{message(TextFailure)}, e.backToBrowsing(s, ev)...), s.browsing
	}
	if err := s.cursor.RefreshAfterEdit(ctx, e.lister(ev.UserID), s.staged.Word); err != nil {
		return []Render{message(TextFailure)}, nil
	}
	if s.cursor.Empty() {
		return []Render{respond(ev, TextEmptyDictionary)}, nil
	}
	return []Render{notice(TextSaved), respond(ev, e.cardText(s.browsing), cardRows()...)}, s.browsing
}

func (e *Engine) backToBrowsing(s editSession, ev Event) []Render {
	return []Render{respond(ev, e.cardText(s.browsing), cardRows()...)}
}

func (e *Engine) cardText(b browsing) string {
	return CardText(b.cursor.Render(e.opts.TranslationLimit))
}

func (e *Engine) posRows(cancel string) [][]Button {
	return partOfSpeechRows(e.opts.PartOfSpeechColumns, cancel)
}

func (e *Engine) lister(userID int64) browse.Lister {
	return browse.ListerFunc(func(ctx context.Context) ([]words.Entry, error) {
		return e.store.ListAll(ctx, userID)
	})
}

func (e *Engine) rejected(ctx context.Context, userID int64, err error) {
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelDebug, "input.rejected",
		slog.String("status", "skip"),
		slog.Int64("user_id", userID),
		slog.String("cause", err.Error()),
	)
}
