// Package models defines the domain types for catatan.
package models

import (
	"fmt"
	"math/big"
)

// Progress is the work state of a note.
type Progress string

const (
	ProgressNotStarted Progress = "belumMulai"
	ProgressInProgress Progress = "sedangDikerjakan"
	ProgressDone       Progress = "selesai"
)

// Progresses lists every progress value in display order.
var Progresses = []Progress{ProgressNotStarted, ProgressInProgress, ProgressDone}

// ParseProgress converts a wire string into a Progress.
func ParseProgress(s string) (Progress, error) {
	for _, p := range Progresses {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown progress %q", s)
}

// Label returns the human label shown in note lists.
func (p Progress) Label() string {
	switch p {
	case ProgressNotStarted:
		return "Belum Mulai"
	case ProgressInProgress:
		return "Sedang Dikerjakan"
	case ProgressDone:
		return "Selesai"
	default:
		return string(p)
	}
}

// Category is the priority bucket of a note.
type Category string

const (
	CategoryPriority Category = "prioritas"
	CategoryRelaxed  Category = "santai"
	CategoryMedium   Category = "medium"
)

// Categories lists every category value in display order.
var Categories = []Category{CategoryPriority, CategoryMedium, CategoryRelaxed}

// ParseCategory converts a wire string into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Label returns the human label shown in note lists.
func (c Category) Label() string {
	switch c {
	case CategoryPriority:
		return "Prioritas"
	case CategoryMedium:
		return "Medium"
	case CategoryRelaxed:
		return "Santai"
	default:
		return string(c)
	}
}

// ChecklistEntry is one item of a checklist group.
type ChecklistEntry struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// ContentUnit is one persisted piece of non-image content.
//
// A unit with non-nil ChecklistItems is a checklist group and its text and
// formatting flags carry no meaning. Otherwise it is a single plain, heading
// or bullet piece.
type ContentUnit struct {
	Text           string           `json:"text"`
	Bold           bool             `json:"isBold"`
	Italic         bool             `json:"isItalic"`
	Heading        bool             `json:"isHeading"`
	Bullet         bool             `json:"isBulletPoint"`
	ChecklistItems []ChecklistEntry `json:"checklistItems,omitempty"`
}

// IsChecklist reports whether the unit is a checklist group.
func (u ContentUnit) IsChecklist() bool {
	return u.ChecklistItems != nil
}

// ImageRef is an opaque handle to an uploaded image. Bytes are resolved
// lazily through the image store.
type ImageRef struct {
	Key string `json:"key"`
}

// URL returns the display URL of the image.
func (r ImageRef) URL() string {
	return "/images/" + r.Key
}

// Note is the durable entity.
type Note struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Owner     string             `json:"owner"`
	Timestamp int64              `json:"timestamp"` // ns since epoch
	Content   []ContentUnit      `json:"content"`
	Images    []ImageRef         `json:"images"`
	Target    Optional[*big.Int] `json:"target"`
	DueDate   Optional[int64]    `json:"dueDate"` // ns since epoch
	Progress  Progress           `json:"progress"`
	Category  Category           `json:"category"`
}

// NoteInput carries everything create and update write. It is the output of
// an editor save, never built piecemeal.
type NoteInput struct {
	Title    string
	Owner    string
	Content  []ContentUnit
	Images   []ImageRef
	Progress Progress
	Category Category
	Target   Optional[*big.Int]
	DueDate  Optional[int64]
}
