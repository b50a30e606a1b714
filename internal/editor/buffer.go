package editor

import (
	"errors"

	"github.com/starford/catatan/internal/models"
)

var (
	ErrLastBlock     = errors.New("editor: cannot delete the last block")
	ErrBlockNotFound = errors.New("editor: block not found")
	ErrOutOfRange    = errors.New("editor: index out of range")
)

// Buffer is the editing block sequence of one session. It never becomes
// empty: Delete refuses to remove the last block.
//
// A Buffer is owned by a single session and is not safe for concurrent use.
type Buffer struct {
	blocks []Block
	ids    idSeq
}

// NewBuffer returns a buffer holding one empty paragraph, the starting state
// when composing a new note.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.blocks = []Block{{ID: b.ids.next(), Kind: KindParagraph}}
	return b
}

// BufferOf builds a buffer from blocks. Block ids are reassigned so they are
// unique within the buffer; an empty input yields one empty paragraph.
func BufferOf(blocks []Block) *Buffer {
	if len(blocks) == 0 {
		return NewBuffer()
	}
	b := &Buffer{blocks: make([]Block, len(blocks))}
	for i, blk := range blocks {
		blk.ID = b.ids.next()
		b.blocks[i] = blk
	}
	return b
}

// Blocks returns a copy of the current sequence.
func (b *Buffer) Blocks() []Block {
	out := make([]Block, len(b.blocks))
	copy(out, b.blocks)
	return out
}

// Len returns the number of blocks.
func (b *Buffer) Len() int {
	return len(b.blocks)
}

// Append adds an empty block of kind at the end and returns it.
func (b *Buffer) Append(kind Kind) Block {
	blk := Block{ID: b.ids.next(), Kind: kind}
	b.blocks = append(b.blocks, blk)
	return blk
}

// AppendImage adds an image block carrying ref at the end and returns it.
func (b *Buffer) AppendImage(ref models.ImageRef) Block {
	blk := Block{ID: b.ids.next(), Kind: KindImage, Image: &ref}
	b.blocks = append(b.blocks, blk)
	return blk
}

// Insert places blk at index (0..Len) with a fresh id and returns it.
func (b *Buffer) Insert(index int, blk Block) (Block, error) {
	if index < 0 || index > len(b.blocks) {
		return Block{}, ErrOutOfRange
	}
	blk.ID = b.ids.next()
	b.blocks = append(b.blocks, Block{})
	copy(b.blocks[index+1:], b.blocks[index:])
	b.blocks[index] = blk
	return blk, nil
}

// Update applies fn to the block with id. fn cannot change the id.
func (b *Buffer) Update(id string, fn func(*Block)) error {
	i := b.indexOf(id)
	if i < 0 {
		return ErrBlockNotFound
	}
	fn(&b.blocks[i])
	b.blocks[i].ID = id
	return nil
}

// ToggleBold flips the bold flag of the block with id.
func (b *Buffer) ToggleBold(id string) error {
	return b.Update(id, func(blk *Block) { blk.Bold = !blk.Bold })
}

// ToggleItalic flips the italic flag of the block with id.
func (b *Buffer) ToggleItalic(id string) error {
	return b.Update(id, func(blk *Block) { blk.Italic = !blk.Italic })
}

// Delete removes the block with id. Removing the only block fails with
// ErrLastBlock and leaves the buffer unchanged.
func (b *Buffer) Delete(id string) error {
	i := b.indexOf(id)
	if i < 0 {
		return ErrBlockNotFound
	}
	if len(b.blocks) == 1 {
		return ErrLastBlock
	}
	b.blocks = append(b.blocks[:i], b.blocks[i+1:]...)
	return nil
}

func (b *Buffer) indexOf(id string) int {
	for i := range b.blocks {
		if b.blocks[i].ID == id {
			return i
		}
	}
	return -1
}
