package keyboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRows(t *testing.T) {
	assert.Nil(t, InlineButtonsRows())
	assert.Nil(t, InlineButtonsRows(nil, []InlineBtn{}))

	m := InlineButtonsRows(
		[]InlineBtn{{Text: "⬅️", Unique: "browse", Data: "prev"}, {Text: "➡️", Unique: "browse", Data: "next"}},
		nil,
		[]InlineBtn{{Text: "Cancel", Unique: "cancel"}},
	)
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Equal(t, "next", m.InlineKeyboard[0][1].Data)
	assert.Equal(t, "browse", m.InlineKeyboard[0][1].Unique)
	assert.Equal(t, "Cancel", m.InlineKeyboard[1][0].Text)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1}, {2}}, Chunk([]int{1, 2}, 0))
	assert.Empty(t, Chunk([]int{}, 3))
}

func TestFits(t *testing.T) {
	assert.True(t, InlineBtn{Unique: "browse", Data: "next_letter"}.Fits())
	assert.False(t, InlineBtn{Unique: "x", Data: strings.Repeat("a", 62)}.Fits())
}
