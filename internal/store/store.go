package store

import (
	"context"
	"time"

	"github.com/starford/catatan/internal/models"
)

// Repository defines the persistence operations of the note store.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type Repository interface {
	Insert(ctx context.Context, id string, in models.NoteInput, now time.Time) (*models.Note, error)
	Update(ctx context.Context, id string, in models.NoteInput, ifMatch string, now time.Time) (*models.Note, error)
	Get(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context, f Filter) ([]models.Note, error)
	Delete(ctx context.Context, id string) error
	ToggleChecklistItem(ctx context.Context, id, itemText string, now time.Time) (*models.Note, error)
	AddImage(ctx context.Context, id string, ref models.ImageRef, now time.Time) (*models.Note, error)
	RemoveImage(ctx context.Context, key string, now time.Time) ([]string, error)
	ImageKeys(ctx context.Context) (map[string]struct{}, error)
	Checksum(ctx context.Context, id string) (string, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Close() error
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Category models.Category
	Progress models.Progress
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
