package conversation

import (
	"github.com/m3rciful/lexibot/app/browse"
	"github.com/m3rciful/lexibot/app/words"
)

// State is one user's position in a flow. Idle users have no stored state.
// Each variant carries only the data its transitions read.
type State interface {
	Name() string
}

// StateIdle is reported for users without a stored state.
const StateIdle = "idle"

type awaitingPartOfSpeech struct {
	word        string
	translation string
}

func (awaitingPartOfSpeech) Name() string { return "awaiting_pos" }

type browsing struct {
	cursor *browse.Cursor
}

func (browsing) Name() string { return "browsing" }

// editSession keeps the entry as it was when editing began next to the
// staged replacement.
type editSession struct {
	browsing
	original words.Entry
	staged   words.Entry
}

func newEditSession(b browsing) editSession {
	cur := b.cursor.Current()
	return editSession{browsing: b, original: cur, staged: cur}
}

func (s editSession) changed() bool { return s.original != s.staged }

type awaitingEditField struct{ editSession }

func (awaitingEditField) Name() string { return "awaiting_edit_field" }

type awaitingEditWord struct{ editSession }

func (awaitingEditWord) Name() string { return "awaiting_edit_word" }

type awaitingEditValue struct{ editSession }

func (awaitingEditValue) Name() string { return "awaiting_edit_value" }

type awaitingEditPos struct{ editSession }

func (awaitingEditPos) Name() string { return "awaiting_edit_pos" }

func stateName(s State) string {
	if s == nil {
		return StateIdle
	}
	return s.Name()
}
