// Package editor holds the editing-session block model and the transcoder
// that converts between block sequences and persisted note content.
package editor

import (
	"fmt"
	"strconv"

	"github.com/starford/catatan/internal/models"
)

// Kind is the type of an editor block.
type Kind string

const (
	KindHeading       Kind = "heading"
	KindParagraph     Kind = "paragraph"
	KindBulletItem    Kind = "bulletItem"
	KindChecklistItem Kind = "checklistItem"
	KindImage         Kind = "image"
)

var kinds = []Kind{KindHeading, KindParagraph, KindBulletItem, KindChecklistItem, KindImage}

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown block kind %q", s)
}

// Block is one unit of user-editable content. IDs are only unique within the
// current editing session and are never persisted.
type Block struct {
	ID      string           `json:"id"`
	Kind    Kind             `json:"kind"`
	Text    string           `json:"text"`
	Bold    bool             `json:"bold,omitempty"`
	Italic  bool             `json:"italic,omitempty"`
	Checked bool             `json:"checked,omitempty"`
	Image   *models.ImageRef `json:"image,omitempty"`
}

// idSeq hands out session-local block ids "1", "2", ...
type idSeq struct {
	last int
}

func (s *idSeq) next() string {
	s.last++
	return strconv.Itoa(s.last)
}
