package editor

import (
	"strings"

	"github.com/starford/catatan/internal/models"
)

// Encode turns the editor block sequence into persisted content units and
// images in a single left-to-right pass.
//
// Images are collected separately and never produce a unit. Non-checklist
// blocks with blank text are dropped. Every checklist block is accumulated
// into one group that is appended after all other units, so checklist
// position relative to other content is not preserved. This reordering is
// part of the persisted format and callers rely on it.
func Encode(blocks []Block) ([]models.ContentUnit, []models.ImageRef) {
	units := make([]models.ContentUnit, 0, len(blocks))
	images := make([]models.ImageRef, 0)

	// Pass 1: accumulate.
	var group []models.ChecklistEntry
	for _, b := range blocks {
		switch b.Kind {
		case KindImage:
			if b.Image != nil {
				images = append(images, *b.Image)
			}
		case KindChecklistItem:
			group = append(group, models.ChecklistEntry{Text: b.Text, Checked: b.Checked})
		default:
			if strings.TrimSpace(b.Text) == "" {
				continue
			}
			units = append(units, models.ContentUnit{
				Text:    b.Text,
				Bold:    b.Bold,
				Italic:  b.Italic,
				Heading: b.Kind == KindHeading,
				Bullet:  b.Kind == KindBulletItem,
			})
		}
	}

	// Pass 2: emit the checklist group last.
	if len(group) > 0 {
		units = append(units, models.ContentUnit{ChecklistItems: group})
	}
	return units, images
}

// kindPriority resolves the block kind of a non-checklist unit. Rules are
// evaluated in order; the first match wins, paragraph is the fallback.
var kindPriority = []struct {
	match func(models.ContentUnit) bool
	kind  Kind
}{
	{func(u models.ContentUnit) bool { return u.Heading }, KindHeading},
	{func(u models.ContentUnit) bool { return u.Bullet }, KindBulletItem},
}

func kindOf(u models.ContentUnit) Kind {
	for _, rule := range kindPriority {
		if rule.match(u) {
			return rule.kind
		}
	}
	return KindParagraph
}

// Decode expands a persisted note into an editable block sequence. The
// result is never empty and block ids are fresh, starting at "1".
//
// A unit that carries checklist items is treated as a checklist group even
// if it also has text; that text is ignored.
func Decode(note *models.Note) []Block {
	var ids idSeq
	blocks := make([]Block, 0, len(note.Content)+len(note.Images))

	for _, u := range note.Content {
		if u.IsChecklist() {
			for _, item := range u.ChecklistItems {
				blocks = append(blocks, Block{
					ID:      ids.next(),
					Kind:    KindChecklistItem,
					Text:    item.Text,
					Checked: item.Checked,
				})
			}
			continue
		}
		blocks = append(blocks, Block{
			ID:     ids.next(),
			Kind:   kindOf(u),
			Text:   u.Text,
			Bold:   u.Bold,
			Italic: u.Italic,
		})
	}

	for _, img := range note.Images {
		ref := img
		blocks = append(blocks, Block{ID: ids.next(), Kind: KindImage, Image: &ref})
	}

	if len(blocks) == 0 {
		blocks = append(blocks, Block{ID: ids.next(), Kind: KindParagraph})
	}
	return blocks
}
