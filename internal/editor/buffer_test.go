package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/catatan/internal/models"
)

func TestNewBuffer_OneEmptyParagraph(t *testing.T) {
	b := NewBuffer()
	assert.Equal(t, []Block{{ID: "1", Kind: KindParagraph}}, b.Blocks())
}

func TestBuffer_DeleteLastRejected(t *testing.T) {
	b := NewBuffer()
	err := b.Delete("1")
	assert.ErrorIs(t, err, ErrLastBlock)
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_AppendAndDelete(t *testing.T) {
	b := NewBuffer()
	h := b.Append(KindHeading)
	c := b.Append(KindChecklistItem)
	assert.Equal(t, "2", h.ID)
	assert.Equal(t, "3", c.ID)

	require.NoError(t, b.Delete("1"))
	require.NoError(t, b.Delete(h.ID))
	assert.ErrorIs(t, b.Delete(c.ID), ErrLastBlock)
	assert.ErrorIs(t, b.Delete("nope"), ErrBlockNotFound)

	blocks := b.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, KindChecklistItem, blocks[0].Kind)
}

func TestBuffer_IDsNeverReused(t *testing.T) {
	b := NewBuffer()
	second := b.Append(KindParagraph)
	require.NoError(t, b.Delete(second.ID))
	third := b.Append(KindParagraph)
	assert.NotEqual(t, second.ID, third.ID)
}

func TestBuffer_Insert(t *testing.T) {
	b := NewBuffer()
	blk, err := b.Insert(0, Block{ID: "ignored", Kind: KindHeading, Text: "top"})
	require.NoError(t, err)
	assert.Equal(t, "2", blk.ID)

	blocks := b.Blocks()
	assert.Equal(t, KindHeading, blocks[0].Kind)
	assert.Equal(t, KindParagraph, blocks[1].Kind)

	_, err = b.Insert(5, Block{Kind: KindParagraph})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBuffer_UpdateAndToggle(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Update("1", func(blk *Block) {
		blk.Text = "hello"
		blk.ID = "hijack"
	}))
	require.NoError(t, b.ToggleBold("1"))
	require.NoError(t, b.ToggleItalic("1"))
	require.NoError(t, b.ToggleItalic("1"))

	got := b.Blocks()[0]
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, "hello", got.Text)
	assert.True(t, got.Bold)
	assert.False(t, got.Italic)
	assert.ErrorIs(t, b.ToggleBold("x"), ErrBlockNotFound)
}

func TestBuffer_BlocksIsACopy(t *testing.T) {
	b := NewBuffer()
	blocks := b.Blocks()
	blocks[0].Text = "mutated"
	assert.Equal(t, "", b.Blocks()[0].Text)
}

func TestBufferOf(t *testing.T) {
	ref := models.ImageRef{Key: "k"}
	b := BufferOf([]Block{
		{ID: "7", Kind: KindParagraph, Text: "a"},
		{ID: "7", Kind: KindImage, Image: &ref},
	})
	blocks := b.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "1", blocks[0].ID)
	assert.Equal(t, "2", blocks[1].ID)

	img := b.AppendImage(models.ImageRef{Key: "z"})
	assert.Equal(t, "3", img.ID)

	assert.Equal(t, 1, BufferOf(nil).Len())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("checklistItem")
	require.NoError(t, err)
	assert.Equal(t, KindChecklistItem, k)

	_, err = ParseKind("table")
	assert.Error(t, err)
}
