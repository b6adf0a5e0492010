package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/lexibot/app/browse"
	"github.com/m3rciful/lexibot/app/words"
	"github.com/m3rciful/lexibot/core/telegram/format"
)

// User-facing texts use legacy Telegram Markdown.
const (
	TextGreeting = "🌟 *Welcome!*\n\n" +
		"This is your personal vocabulary notebook 📚✨\n\n" +
		"*What I can do:*\n" +
		"➕ Save English words with a translation and part of speech\n" +
		"✏️ Edit or 🗑 delete entries, everything stays under your control\n" +
		"📋 Browse your collection with /list\n\n" +
		"*How to start?*\n" +
		"🔸 Send a new word, for example: _book_\n" +
		"🔸 Or add a translation right away: _book: книга_\n\n" +
		"Ready? Send the word of the day: *embrace* 🚀"

	TextAbout = "I make learning languages simpler and more pleasant 🌍📚\n\n" +
		"🔹 A handy dictionary so you never lose a word\n" +
		"🔹 Letter-by-letter browsing to revise what you saved\n\n" +
		"Learn at your own pace!"

	TextAddHint = "📝 Send a new word to learn.\nYou can add a translation after a colon: _word: translation_"

	TextEmptyDictionary = "📭 Your dictionary is empty. Send a word to add the first one."
	TextCancelled       = "Cancelled."
	TextNothingToCancel = "Nothing to cancel."
	TextClosed          = "📕 Dictionary closed."
	TextUseButtons      = "Please choose a part of speech with the buttons below."
	TextEmptyWord       = "The word can't be empty."
	TextFailure         = "⚠️ Something went wrong, please try again later."
	TextNoChanges       = "No changes."
	TextSaved           = "✅ Saved"
	TextDeleted         = "🗑 Deleted"
	TextFirstWord       = "This is the first word."
	TextLastWord        = "This is the last word."
	TextFirstLetter     = "This is the first letter."
	TextLastLetter      = "This is the last letter."
	TextNoLetters       = "No letters to jump to."
	TextChooseField     = "What do you want to change?"
	TextAskWord         = "Send the new word."
	TextAskMeaning      = "Send the new translation, or - to remove it."
	TextAskPartOfSpeech = "Choose the new part of speech."
	TextSendText        = "Please send text. Files and stickers are not supported."
	TextUnknownAction   = "Unsupported action"
)

func textAskPartOfSpeech(word string) string {
	return fmt.Sprintf("What part of speech is *%s*?", format.Escape(word))
}

func textDuplicate(word string) string {
	return fmt.Sprintf("*%s* is already in your dictionary.", format.Escape(word))
}

func textSavedEntry(e words.Entry) string {
	return fmt.Sprintf("✅ Saved: *%s* (%s)", format.Escape(e.Word), e.PartOfSpeech)
}

func textEditing(e words.Entry, prompt string) string {
	return fmt.Sprintf("Editing *%s*\n\n%s", format.Escape(e.Word), prompt)
}

// CardText formats a browse card.
func CardText(card browse.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* _(%s)_\n", format.Escape(card.Word), card.PartOfSpeech)
	if card.Translation != "" {
		b.WriteString(format.Escape(card.Translation))
	} else {
		b.WriteString("—")
	}
	fmt.Fprintf(&b, "\n\n%d / %d", card.Position, card.Total)
	return b.String()
}

// StatsText formats the admin summary.
func StatsText(st words.Stats) string {
	return fmt.Sprintf("📊 Users: %d\nWords: %d", st.Users, st.Words)
}
