package noteservice

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/starford/catatan/internal/models"
	"github.com/starford/catatan/internal/store"
)

func TestPreview(t *testing.T) {
	content := []models.ContentUnit{
		{Text: "Judul", Heading: true},
		{ChecklistItems: []models.ChecklistEntry{{Text: "hidden"}}},
		{Text: "isi"},
		{Text: ""},
	}
	if got := Preview(content); got != "Judul isi" {
		t.Errorf("Preview = %q", got)
	}

	long := strings.Repeat("é", 160)
	got := Preview([]models.ContentUnit{{Text: long}})
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 153 {
		t.Errorf("long preview = %d runes", len([]rune(got)))
	}
	exact := strings.Repeat("a", 150)
	if got := Preview([]models.ContentUnit{{Text: exact}}); got != exact {
		t.Error("150 chars should not be cut")
	}
}

func TestSummarize(t *testing.T) {
	loc := time.UTC
	created := time.Date(2024, time.December, 31, 23, 59, 0, 0, loc)
	due := time.Date(2024, time.June, 1, 10, 5, 0, 0, loc)
	n := &models.Note{
		ID:        "n",
		Title:     "t",
		Timestamp: created.UnixNano(),
		Content:   []models.ContentUnit{{Text: "hi"}},
		Images: []models.ImageRef{
			{Key: "1.png"}, {Key: "2.png"}, {Key: "3.png"}, {Key: "4.png"}, {Key: "5.png"},
		},
		Progress: models.ProgressInProgress,
		Category: models.CategoryPriority,
		Target:   models.Some(big.NewInt(7)),
		DueDate:  models.Some(due.UnixNano()),
	}
	s := Summarize(n, created, loc)

	if s.ProgressLabel != "Sedang Dikerjakan" || s.CategoryLabel != "Prioritas" {
		t.Errorf("labels = %q / %q", s.ProgressLabel, s.CategoryLabel)
	}
	if s.Created != "31 Desember 2024 pukul 23.59" {
		t.Errorf("created = %q", s.Created)
	}
	if s.Due == nil || s.Due.Formatted != "1 Jun 2024, 10.05" || !s.Due.Overdue {
		t.Errorf("due = %+v", s.Due)
	}
	if s.Target != "7" {
		t.Errorf("target = %q", s.Target)
	}
	if len(s.Thumbnails) != 3 || s.Thumbnails[0] != "/images/1.png" || s.MoreImages != 2 {
		t.Errorf("thumbnails = %v more = %d", s.Thumbnails, s.MoreImages)
	}
}

func TestSummariesNoDue(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, input("plain"))

	sums, err := svc.Summaries(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(sums) != 1 || sums[0].Due != nil || sums[0].Target != "" {
		t.Errorf("summaries = %+v", sums)
	}
	if sums[0].Thumbnails == nil {
		t.Error("thumbnails should be an empty slice")
	}
}
