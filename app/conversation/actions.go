package conversation

import (
	"strings"

	"github.com/m3rciful/lexibot/app/words"
	"github.com/m3rciful/lexibot/core/telegram/keyboard"
)

// Action ids are "<group>.<name>"; the group is what the transport routes on.
const (
	GroupPartOfSpeech = "pos"
	GroupBrowse       = "browse"
	GroupEdit         = "edit"

	ActionAddCancel = GroupPartOfSpeech + ".cancel"

	ActionNext       = GroupBrowse + ".next"
	ActionPrev       = GroupBrowse + ".prev"
	ActionNextLetter = GroupBrowse + ".nextl"
	ActionPrevLetter = GroupBrowse + ".prevl"
	ActionDelete     = GroupBrowse + ".delete"
	ActionEdit       = GroupBrowse + ".edit"
	ActionClose      = GroupBrowse + ".close"

	ActionEditWord    = GroupEdit + ".word"
	ActionEditMeaning = GroupEdit + ".meaning"
	ActionEditPos     = GroupEdit + ".pos"
	ActionEditCancel  = GroupEdit + ".cancel"
)

// Groups lists every action group the engine emits.
var Groups = []string{GroupPartOfSpeech, GroupBrowse, GroupEdit}

// PartOfSpeechAction is the action id selecting p.
func PartOfSpeechAction(p words.PartOfSpeech) string {
	return GroupPartOfSpeech + "." + string(p)
}

// parsePartOfSpeechAction extracts the category from a "pos.<name>" action.
func parsePartOfSpeechAction(action string) (words.PartOfSpeech, bool) {
	name, ok := strings.CutPrefix(action, GroupPartOfSpeech+".")
	if !ok {
		return "", false
	}
	p, err := words.ParsePartOfSpeech(name)
	if err != nil {
		return "", false
	}
	return p, true
}

func partOfSpeechRows(columns int, cancel string) [][]Button {
	buttons := make([]Button, 0, len(words.PartsOfSpeech))
	for _, p := range words.PartsOfSpeech {
		buttons = append(buttons, Button{Label: p.Label(), Action: PartOfSpeechAction(p)})
	}
	return append(keyboard.Chunk(buttons, columns), []Button{{Label: "✖️ Cancel", Action: cancel}})
}

func cardRows() [][]Button {
	return [][]Button{
		{
			{Label: "⏪", Action: ActionPrevLetter},
			{Label: "◀️", Action: ActionPrev},
			{Label: "▶️", Action: ActionNext},
			{Label: "⏩", Action: ActionNextLetter},
		},
		{
			{Label: "✏️ Edit", Action: ActionEdit},
			{Label: "🗑 Delete", Action: ActionDelete},
		},
		{
			{Label: "✖️ Close", Action: ActionClose},
		},
	}
}

func editFieldRows() [][]Button {
	return [][]Button{
		{
			{Label: "Word", Action: ActionEditWord},
			{Label: "Meaning", Action: ActionEditMeaning},
			{Label: "Part of speech", Action: ActionEditPos},
		},
		{
			{Label: "↩️ Back", Action: ActionEditCancel},
		},
	}
}

func editCancelRow() []Button {
	return []Button{{Label: "↩️ Back", Action: ActionEditCancel}}
}
