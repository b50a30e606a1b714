package noteservice

import (
	"context"
	"strings"
	"time"

	"github.com/starford/catatan/internal/codec"
	"github.com/starford/catatan/internal/models"
	"github.com/starford/catatan/internal/store"
)

const (
	previewLen    = 150
	maxThumbnails = 3
)

// Summary is the list view of a note.
type Summary struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Owner         string            `json:"owner"`
	Preview       string            `json:"preview"`
	Progress      models.Progress   `json:"progress"`
	ProgressLabel string            `json:"progressLabel"`
	Category      models.Category   `json:"category"`
	CategoryLabel string            `json:"categoryLabel"`
	Target        string            `json:"target,omitempty"`
	Due           *codec.DueDisplay `json:"due,omitempty"`
	Created       string            `json:"created"`
	Thumbnails    []string          `json:"thumbnails"`
	MoreImages    int               `json:"moreImages"`
}

// Summaries lists notes matching f as list-view summaries.
func (s *Service) Summaries(ctx context.Context, f store.Filter) ([]Summary, error) {
	notes, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Summary, len(notes))
	for i := range notes {
		out[i] = Summarize(&notes[i], now, s.loc)
	}
	return out, nil
}

// Summarize builds the list view of one note.
func Summarize(n *models.Note, now time.Time, loc *time.Location) Summary {
	sum := Summary{
		ID:            n.ID,
		Title:         n.Title,
		Owner:         n.Owner,
		Preview:       Preview(n.Content),
		Progress:      n.Progress,
		ProgressLabel: n.Progress.Label(),
		Category:      n.Category,
		CategoryLabel: n.Category.Label(),
		Target:        codec.FormatTarget(n.Target),
		Created:       codec.FormatTimestamp(n.Timestamp, loc),
		Thumbnails:    []string{},
	}
	if ns, ok := n.DueDate.Get(); ok {
		d := codec.DecodeDueDateForDisplay(ns, now, loc)
		sum.Due = &d
	}
	for i, img := range n.Images {
		if i == maxThumbnails {
			sum.MoreImages = len(n.Images) - maxThumbnails
			break
		}
		sum.Thumbnails = append(sum.Thumbnails, img.URL())
	}
	return sum
}

// Preview joins the text of non-checklist units and cuts it to 150
// characters, marking the cut with "...".
func Preview(content []models.ContentUnit) string {
	parts := make([]string, 0, len(content))
	for _, u := range content {
		if u.Text == "" || u.IsChecklist() {
			continue
		}
		parts = append(parts, u.Text)
	}
	r := []rune(strings.Join(parts, " "))
	if len(r) <= previewLen {
		return string(r)
	}
	return string(r[:previewLen]) + "..."
}
