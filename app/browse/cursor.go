// Package browse navigates a snapshot of one user's dictionary word by word
// and by starting letter.
package browse

import (
	"context"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/lexibot/app/words"
)

// DefaultTranslationLimit caps the rendered translation when no limit is given.
const DefaultTranslationLimit = 100

// Outcome describes the result of a navigation step.
type Outcome int

const (
	// Moved means the cursor points at a different entry.
	Moved Outcome = iota
	// Boundary means the cursor was already at the first or last position.
	Boundary
	// NoLetters means there are no letter groups to move between.
	NoLetters
	// Emptied means the dictionary has no entries left.
	Emptied
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Boundary:
		return "boundary"
	case NoLetters:
		return "no_letters"
	case Emptied:
		return "emptied"
	}
	return "unknown"
}

// Lister loads the current entries of one user in canonical order.
type Lister interface {
	ListAll(ctx context.Context) ([]words.Entry, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context) ([]words.Entry, error)

// ListAll calls f.
func (f ListerFunc) ListAll(ctx context.Context) ([]words.Entry, error) { return f(ctx) }

// Cursor points at one entry of a non-empty snapshot. Letter always equals
// the uppercased first rune of the current word.
type Cursor struct {
	entries []words.Entry
	index   int
	letter  rune
}

// Card is the display record of the current entry.
type Card struct {
	Word         string
	PartOfSpeech words.PartOfSpeech
	Translation  string
	// Position is 1-based.
	Position int
	Total    int
}

// New builds a cursor at the first entry. It returns false for an empty snapshot.
func New(entries []words.Entry) (*Cursor, bool) {
	if len(entries) == 0 {
		return nil, false
	}
	c := &Cursor{entries: slices.Clone(entries)}
	c.moveTo(0)
	return c, true
}

// Load reads a snapshot from src and builds a cursor at the first entry.
func Load(ctx context.Context, src Lister) (*Cursor, bool, error) {
	entries, err := src.ListAll(ctx)
	if err != nil {
		return nil, false, err
	}
	c, ok := New(entries)
	return c, ok, nil
}

// Current returns the entry under the cursor.
func (c *Cursor) Current() words.Entry { return c.entries[c.index] }

// Index returns the 0-based position.
func (c *Cursor) Index() int { return c.index }

// Len returns the snapshot size.
func (c *Cursor) Len() int { return len(c.entries) }

// Letter returns the active letter.
func (c *Cursor) Letter() rune { return c.letter }

// Next moves one entry forward, stopping at the last one.
func (c *Cursor) Next() Outcome {
	if c.index >= len(c.entries)-1 {
		return Boundary
	}
	c.moveTo(c.index + 1)
	return Moved
}

// Prev moves one entry back, stopping at the first one.
func (c *Cursor) Prev() Outcome {
	if c.index <= 0 {
		return Boundary
	}
	c.moveTo(c.index - 1)
	return Moved
}

// NextLetter jumps to the first entry of the following letter group.
func (c *Cursor) NextLetter() Outcome { return c.shiftLetter(1) }

// PrevLetter jumps to the first entry of the preceding letter group.
func (c *Cursor) PrevLetter() Outcome { return c.shiftLetter(-1) }

// Letters returns the sorted distinct first letters of the snapshot.
func (c *Cursor) Letters() []rune {
	seen := make(map[rune]struct{}, len(c.entries))
	var out []rune
	for _, e := range c.entries {
		l := letterOf(e.Word)
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

func (c *Cursor) shiftLetter(step int) Outcome {
	letters := c.Letters()
	if len(letters) == 0 {
		return NoLetters
	}
	pos, found := slices.BinarySearch(letters, c.letter)
	if !found {
		pos = 0
	}
	target := pos + step
	if target < 0 || target >= len(letters) {
		return Boundary
	}
	next := letters[target]
	for i, e := range c.entries {
		if letterOf(e.Word) == next {
			c.moveTo(i)
			return Moved
		}
	}
	return NoLetters
}

// RefreshAfterDeletion reloads the snapshot and keeps the cursor near its
// previous position. Emptied is returned when nothing is left. On error the
// cursor is unchanged.
func (c *Cursor) RefreshAfterDeletion(ctx context.Context, src Lister) (Outcome, error) {
	entries, err := src.ListAll(ctx)
	if err != nil {
		return Moved, err
	}
	if len(entries) == 0 {
		c.entries = nil
		c.index = 0
		c.letter = 0
		return Emptied, nil
	}
	c.entries = entries
	c.moveTo(min(c.index, len(entries)-1))
	return Moved, nil
}

// RefreshAfterEdit reloads the snapshot and points at newWord, falling back
// to the previous index when the word is not there. On error the cursor is
// unchanged.
func (c *Cursor) RefreshAfterEdit(ctx context.Context, src Lister, newWord string) error {
	entries, err := src.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		c.entries = nil
		c.index = 0
		c.letter = 0
		return nil
	}
	c.entries = entries
	idx := indexOf(entries, newWord)
	if idx < 0 {
		idx = min(c.index, len(entries)-1)
	}
	c.moveTo(idx)
	return nil
}

// Empty reports whether a refresh left nothing to show.
func (c *Cursor) Empty() bool { return len(c.entries) == 0 }

// Render builds the display record, truncating the translation to limit
// runes with an ellipsis. A non-positive limit uses DefaultTranslationLimit.
func (c *Cursor) Render(limit int) Card {
	e := c.Current()
	return Card{
		Word:         e.Word,
		PartOfSpeech: e.PartOfSpeech,
		Translation:  Truncate(e.Translation, limit),
		Position:     c.index + 1,
		Total:        len(c.entries),
	}
}

// Truncate shortens s to limit runes and appends "…" when it was longer.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		limit = DefaultTranslationLimit
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "…"
}

func (c *Cursor) moveTo(i int) {
	c.index = i
	c.letter = letterOf(c.entries[i].Word)
}

func indexOf(entries []words.Entry, word string) int {
	for i, e := range entries {
		if e.Word == word {
			return i
		}
	}
	key := words.Key(word)
	for i, e := range entries {
		if words.Key(e.Word) == key {
			return i
		}
	}
	return -1
}

func letterOf(word string) rune {
	r, _ := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return 0
	}
	return unicode.ToUpper(r)
}
