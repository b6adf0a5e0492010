// Package words persists per-user vocabulary entries.
package words

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// ErrDuplicate reports a case-insensitive clash with an existing word.
	ErrDuplicate = errors.New("words: word already exists")
	// ErrNotFound reports that the word is absent from the dictionary.
	ErrNotFound = errors.New("words: word not found")
	// ErrEmptyWord rejects blank words.
	ErrEmptyWord = errors.New("words: word is empty")
	// ErrInvalidPartOfSpeech rejects values outside the supported set.
	ErrInvalidPartOfSpeech = errors.New("words: invalid part of speech")
)

// PartOfSpeech is the grammatical category of an entry.
type PartOfSpeech string

const (
	Noun      PartOfSpeech = "noun"
	Verb      PartOfSpeech = "verb"
	Adjective PartOfSpeech = "adjective"
	Adverb    PartOfSpeech = "adverb"
)

// PartsOfSpeech lists the supported categories in menu order.
var PartsOfSpeech = []PartOfSpeech{Noun, Verb, Adjective, Adverb}

// ParsePartOfSpeech accepts a category name in any case.
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	p := PartOfSpeech(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPartOfSpeech
	}
	return p, nil
}

// Valid reports whether p belongs to the supported set.
func (p PartOfSpeech) Valid() bool {
	switch p {
	case Noun, Verb, Adjective, Adverb:
		return true
	}
	return false
}

// Label is the capitalised name shown on buttons.
func (p PartOfSpeech) Label() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Entry is one vocabulary item. An empty Translation means none was given.
type Entry struct {
	Word         string
	PartOfSpeech PartOfSpeech
	Translation  string
}

// Key returns the case-folded form used for uniqueness.
func Key(word string) string {
	return cases.Fold().String(strings.TrimSpace(word))
}

func (e Entry) normalized() (Entry, error) {
	e.Word = strings.TrimSpace(e.Word)
	e.Translation = strings.TrimSpace(e.Translation)
	if e.Word == "" {
		return e, ErrEmptyWord
	}
	if !e.PartOfSpeech.Valid() {
		return e, ErrInvalidPartOfSpeech
	}
	return e, nil
}
