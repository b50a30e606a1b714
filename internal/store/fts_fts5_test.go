//go:build sqlite_fts5

package store

import (
	"context"
	"testing"
	"time"

	"github.com/starford/catatan/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchChecklistText(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	in := sampleInput()
	in.Content = []models.ContentUnit{{ChecklistItems: []models.ChecklistEntry{{Text: "renovate kitchen"}}}}
	if _, err := db.Insert(ctx, "fts", in, time.Now()); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	results, err := db.Search(ctx, "kitchen", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "fts" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	in := sampleInput()
	in.Content = []models.ContentUnit{{Text: "vanishing content"}}
	_, _ = db.Insert(ctx, "gone", in, time.Now())
	_ = db.Delete(ctx, "gone")

	results, _ := db.Search(ctx, "vanishing", 10)
	if len(results) != 0 {
		t.Error("deleted note still in FTS index")
	}
}

func TestFTS5_UpdateReplacesContent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	in := sampleInput()
	in.Content = []models.ContentUnit{{Text: "original text"}}
	_, _ = db.Insert(ctx, "evo", in, time.Now())
	in.Title = "New"
	in.Content = []models.ContentUnit{{Text: "replacement text"}}
	_, _ = db.Update(ctx, "evo", in, "", time.Now())

	results, _ := db.Search(ctx, "original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search(ctx, "replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
