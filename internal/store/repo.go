package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/starford/catatan/internal/apperr"
	"github.com/starford/catatan/internal/checksum"
	"github.com/starford/catatan/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const noteColumns = `id, title, owner, content, images, target, due_date, progress, category, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*models.Note, error) {
	var (
		n               models.Note
		content, images string
		target          sql.NullString
		due             sql.NullInt64
		progress, cat   string
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Owner, &content, &images, &target, &due, &progress, &cat, &n.Timestamp); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &n.Content); err != nil {
		return nil, fmt.Errorf("store: decode content of %s: %w", n.ID, err)
	}
	if err := json.Unmarshal([]byte(images), &n.Images); err != nil {
		return nil, fmt.Errorf("store: decode images of %s: %w", n.ID, err)
	}
	if target.Valid {
		v, ok := new(big.Int).SetString(target.String, 10)
		if !ok {
			return nil, fmt.Errorf("store: bad target %q on %s", target.String, n.ID)
		}
		n.Target = models.Some(v)
	}
	if due.Valid {
		n.DueDate = models.Some(due.Int64)
	}
	n.Progress = models.Progress(progress)
	n.Category = models.Category(cat)
	if n.Content == nil {
		n.Content = []models.ContentUnit{}
	}
	if n.Images == nil {
		n.Images = []models.ImageRef{}
	}
	return &n, nil
}

func getNote(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, id string) (*models.Note, error) {
	n, err := scanNote(q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return n, nil
}

// writeNote upserts n, its FTS entry, and its image references within tx.
func writeNote(ctx context.Context, tx *sql.Tx, n *models.Note, now time.Time) error {
	content, err := json.Marshal(nonNil(n.Content))
	if err != nil {
		return fmt.Errorf("store: encode content: %w", err)
	}
	images, err := json.Marshal(nonNil(n.Images))
	if err != nil {
		return fmt.Errorf("store: encode images: %w", err)
	}
	var target sql.NullString
	if v, ok := n.Target.Get(); ok && v != nil {
		target = sql.NullString{String: v.String(), Valid: true}
	}
	var due sql.NullInt64
	if v, ok := n.DueDate.Get(); ok {
		due = sql.NullInt64{Int64: v, Valid: true}
	}
	body := flatten(n.Content)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, owner, content, images, body, target, due_date, progress, category, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			content    = excluded.content,
			images     = excluded.images,
			body       = excluded.body,
			target     = excluded.target,
			due_date   = excluded.due_date,
			progress   = excluded.progress,
			category   = excluded.category,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.ID, n.Title, n.Owner, string(content), string(images), body, target, due,
		string(n.Progress), string(n.Category), checksum.JSON(n), n.Timestamp, now.UnixNano())
	if err != nil {
		return fmt.Errorf("store: upsert note: %w", err)
	}

	if err := ftsUpsert(tx, n.ID, n.Title, body); err != nil {
		return err
	}

	// Replace image references: delete old then bulk insert.
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_images WHERE note_id = ?`, n.ID); err != nil {
		return fmt.Errorf("store: clear image refs: %w", err)
	}
	if len(n.Images) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO note_images (note_id, key) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare image ref insert: %w", err)
		}
		defer stmt.Close()
		for _, img := range n.Images {
			if _, err := stmt.ExecContext(ctx, n.ID, img.Key); err != nil {
				return fmt.Errorf("store: insert image ref: %w", err)
			}
		}
	}
	return nil
}

// mutate loads the note with id inside a transaction, applies fn and writes
// the result back.
func (db *DB) mutate(ctx context.Context, id string, now time.Time, fn func(*models.Note) error) (*models.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	n, err := getNote(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(n); err != nil {
		return nil, err
	}
	if err := writeNote(ctx, tx, n, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return n, nil
}

// Insert creates a note with id from in.
func (db *DB) Insert(ctx context.Context, id string, in models.NoteInput, now time.Time) (*models.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE id = ?`, id).Scan(&exists)
	if err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: check existing: %w", err)
	}

	n := &models.Note{ID: id, Owner: in.Owner, Timestamp: now.UnixNano()}
	apply(n, in)
	if err := writeNote(ctx, tx, n, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return n, nil
}

// Update replaces the editable fields of a note. A non-empty ifMatch must
// equal the stored checksum or apperr.ErrConflict is returned. Owner and
// creation timestamp are preserved.
func (db *DB) Update(ctx context.Context, id string, in models.NoteInput, ifMatch string, now time.Time) (*models.Note, error) {
	return db.mutate(ctx, id, now, func(n *models.Note) error {
		if ifMatch != "" && ifMatch != checksum.JSON(n) {
			return apperr.ErrConflict
		}
		apply(n, in)
		return nil
	})
}

func apply(n *models.Note, in models.NoteInput) {
	n.Title = in.Title
	n.Content = nonNil(in.Content)
	n.Images = nonNil(in.Images)
	n.Progress = in.Progress
	n.Category = in.Category
	n.Target = in.Target
	n.DueDate = in.DueDate
}

// Get returns the note with id.
func (db *DB) Get(ctx context.Context, id string) (*models.Note, error) {
	return getNote(ctx, db.conn, id)
}

// List returns notes matching f, newest first.
func (db *DB) List(ctx context.Context, f Filter) ([]models.Note, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Progress != "" {
		where = append(where, "progress = ?")
		args = append(args, string(f.Progress))
	}
	q := `SELECT ` + noteColumns + ` FROM notes`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// Delete removes a note, its FTS entry, and its image references.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_images WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("store: clear image refs: %w", err)
	}

	return tx.Commit()
}

// ToggleChecklistItem flips the first checklist entry whose text equals
// itemText. It operates on stored state only.
func (db *DB) ToggleChecklistItem(ctx context.Context, id, itemText string, now time.Time) (*models.Note, error) {
	return db.mutate(ctx, id, now, func(n *models.Note) error {
		for i := range n.Content {
			items := n.Content[i].ChecklistItems
			for j := range items {
				if items[j].Text == itemText {
					items[j].Checked = !items[j].Checked
					return nil
				}
			}
		}
		return fmt.Errorf("checklist item %q: %w", itemText, apperr.ErrNotFound)
	})
}

// AddImage appends ref to the note's images.
func (db *DB) AddImage(ctx context.Context, id string, ref models.ImageRef, now time.Time) (*models.Note, error) {
	return db.mutate(ctx, id, now, func(n *models.Note) error {
		n.Images = append(n.Images, ref)
		return nil
	})
}

// RemoveImage drops every reference to key and returns the ids of the notes
// that changed.
func (db *DB) RemoveImage(ctx context.Context, key string, now time.Time) ([]string, error) {
	ids, err := db.notesWithImage(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		_, err := db.mutate(ctx, id, now, func(n *models.Note) error {
			kept := n.Images[:0]
			for _, img := range n.Images {
				if img.Key != key {
					kept = append(kept, img)
				}
			}
			n.Images = kept
			return nil
		})
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	return ids, nil
}

func (db *DB) notesWithImage(ctx context.Context, key string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT note_id FROM note_images WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("store: image refs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ImageKeys returns every image key referenced by any note.
func (db *DB) ImageKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT key FROM note_images`)
	if err != nil {
		return nil, fmt.Errorf("store: image keys: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out[k] = struct{}{}
	}
	return out, rows.Err()
}

// Checksum returns the stored checksum of a note.
func (db *DB) Checksum(ctx context.Context, id string) (string, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM notes WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: checksum: %w", err)
	}
	return cs, nil
}

// flatten joins all note text, checklist entries included, for search.
func flatten(content []models.ContentUnit) string {
	var parts []string
	for _, u := range content {
		if u.IsChecklist() {
			for _, item := range u.ChecklistItems {
				parts = append(parts, item.Text)
			}
			continue
		}
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, "\n")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
