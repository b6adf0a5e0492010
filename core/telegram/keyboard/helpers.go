package keyboard

import (
	tele "gopkg.in/telebot.v4"
)

// MaxCallbackData is the Telegram limit for callback_data in bytes.
const MaxCallbackData = 64

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Fits reports whether the encoded callback data stays within Telegram limits.
func (b InlineBtn) Fits() bool {
	// telebot encodes "\f" + unique + "|" + data
	return 2+len(b.Unique)+len(b.Data) <= MaxCallbackData
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
// Empty rows are dropped. A nil markup is returned when there are no buttons.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline = append(inline, r)
	}
	if len(inline) == 0 {
		return nil
	}
	markup.InlineKeyboard = inline
	return markup
}

// Chunk splits items into rows of up to n elements; n <= 1 yields one per row.
func Chunk[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	rows := make([][]T, 0, (len(items)+n-1)/n)
	for i := 0; i < len(items); i += n {
		end := min(i+n, len(items))
		rows = append(rows, items[i:end])
	}
	return rows
}
