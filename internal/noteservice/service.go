// Package noteservice implements the note operations the editor and the
// transports rely on.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/catatan/internal/apperr"
	"github.com/starford/catatan/internal/editor"
	"github.com/starford/catatan/internal/metrics"
	"github.com/starford/catatan/internal/models"
	"github.com/starford/catatan/internal/sse"
	"github.com/starford/catatan/internal/storage"
	"github.com/starford/catatan/internal/store"
)

// Publisher receives note change notifications.
type Publisher interface {
	PublishNote(c sse.NoteChange)
}

// Service coordinates the note store, the image store and change events.
type Service struct {
	repo   store.Repository
	images storage.ImageStore
	events Publisher
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a note service. events may be nil.
func NewService(repo store.Repository, images storage.ImageStore, events Publisher, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, images: images, events: events, loc: loc, now: time.Now}
}

// Location is the zone due dates are entered and displayed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

var _ editor.Saver = (*Service)(nil)

func (s *Service) publish(kind, id, item string) {
	if s.events == nil {
		return
	}
	s.events.PublishNote(sse.NoteChange{Kind: kind, ID: id, Item: item})
}

func validateInput(in models.NoteInput) error {
	if err := validation.Validate(in.Owner, validation.Required); err != nil {
		return apperr.Invalid("owner", err)
	}
	if err := validation.Validate(in.Progress, validation.Required, validation.In(progressValues()...)); err != nil {
		return apperr.Invalid("progress", err)
	}
	if err := validation.Validate(in.Category, validation.Required, validation.In(categoryValues()...)); err != nil {
		return apperr.Invalid("category", err)
	}
	return nil
}

func progressValues() []any {
	out := make([]any, len(models.Progresses))
	for i, p := range models.Progresses {
		out[i] = p
	}
	return out
}

func categoryValues() []any {
	out := make([]any, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = c
	}
	return out
}

// FetchAll returns every note, newest first.
func (s *Service) FetchAll(ctx context.Context) ([]models.Note, error) {
	return s.repo.List(ctx, store.Filter{})
}

// FetchByID returns one note or apperr.ErrNotFound.
func (s *Service) FetchByID(ctx context.Context, id string) (*models.Note, error) {
	return s.repo.Get(ctx, id)
}

// FilterByCategory returns notes of one category.
func (s *Service) FilterByCategory(ctx context.Context, c models.Category) ([]models.Note, error) {
	return s.repo.List(ctx, store.Filter{Category: c})
}

// FilterByProgress returns notes at one progress stage.
func (s *Service) FilterByProgress(ctx context.Context, p models.Progress) ([]models.Note, error) {
	return s.repo.List(ctx, store.Filter{Progress: p})
}

// List applies both filters at once; zero values match everything.
func (s *Service) List(ctx context.Context, f store.Filter) ([]models.Note, error) {
	return s.repo.List(ctx, f)
}

// Create stores a new note under a fresh id and returns the id.
func (s *Service) Create(ctx context.Context, in models.NoteInput) (string, error) {
	n, err := s.CreateNote(ctx, in)
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

// CreateNote is Create returning the stored note.
func (s *Service) CreateNote(ctx context.Context, in models.NoteInput) (n *models.Note, err error) {
	defer func() { metrics.TrackNoteOperation("create", err) }()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	n, err = s.repo.Insert(ctx, uuid.NewString(), in, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(sse.KindCreated, n.ID, "")
	return n, nil
}

// Update replaces the editable fields of a note.
func (s *Service) Update(ctx context.Context, id string, in models.NoteInput) error {
	_, err := s.UpdateNote(ctx, id, in, "")
	return err
}

// UpdateNote replaces the editable fields of a note. A non-empty ifMatch
// must equal the note's current checksum or apperr.ErrConflict is returned.
func (s *Service) UpdateNote(ctx context.Context, id string, in models.NoteInput, ifMatch string) (n *models.Note, err error) {
	defer func() { metrics.TrackNoteOperation("update", err) }()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	n, err = s.repo.Update(ctx, id, in, ifMatch, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(sse.KindUpdated, id, "")
	return n, nil
}

// Guarded returns a Saver whose updates carry ifMatch.
func (s *Service) Guarded(ifMatch string) editor.Saver {
	return guardedSaver{s: s, ifMatch: ifMatch}
}

type guardedSaver struct {
	s       *Service
	ifMatch string
}

func (g guardedSaver) Create(ctx context.Context, in models.NoteInput) (string, error) {
	return g.s.Create(ctx, in)
}

func (g guardedSaver) Update(ctx context.Context, id string, in models.NoteInput) error {
	_, err := g.s.UpdateNote(ctx, id, in, g.ifMatch)
	return err
}

// Delete removes a note. Images stay on disk.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() { metrics.TrackNoteOperation("delete", err) }()
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(sse.KindDeleted, id, "")
	return nil
}

// ToggleChecklistItem flips the first checklist item whose text equals
// itemText.
func (s *Service) ToggleChecklistItem(ctx context.Context, id, itemText string) (n *models.Note, err error) {
	defer func() { metrics.TrackNoteOperation("toggle", err) }()
	if err := validation.Validate(itemText, validation.Required); err != nil {
		return nil, apperr.Invalid("itemText", err)
	}
	n, err = s.repo.ToggleChecklistItem(ctx, id, itemText, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(sse.KindToggled, id, itemText)
	return n, nil
}

// UploadImage stores image bytes without attaching them to a note.
func (s *Service) UploadImage(_ context.Context, data []byte, name string) (models.ImageRef, error) {
	ref, err := s.images.Put(data, name)
	if errors.Is(err, storage.ErrNotImage) {
		return models.ImageRef{}, apperr.Invalid("file", err)
	}
	return ref, err
}

// AddImageToNote stores image bytes and appends the reference to a note.
// The blob is removed again if the note cannot be updated.
func (s *Service) AddImageToNote(ctx context.Context, id string, data []byte, name string) (n *models.Note, ref models.ImageRef, err error) {
	defer func() { metrics.TrackNoteOperation("add_image", err) }()
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, models.ImageRef{}, err
	}
	ref, err = s.UploadImage(ctx, data, name)
	if err != nil {
		return nil, models.ImageRef{}, err
	}
	n, err = s.repo.AddImage(ctx, id, ref, s.now())
	if err != nil {
		_ = s.images.Delete(ref)
		return nil, models.ImageRef{}, fmt.Errorf("noteservice: attach image: %w", err)
	}
	s.publish(sse.KindUpdated, id, "")
	return n, ref, nil
}

// ImagePath resolves an image key to a file for serving.
func (s *Service) ImagePath(key string) (string, error) {
	return s.images.Path(models.ImageRef{Key: key})
}

// ImageBytes loads the bytes behind ref.
func (s *Service) ImageBytes(ref models.ImageRef) ([]byte, error) {
	return s.images.Bytes(ref)
}

// Search runs a full-text query over titles and note text.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if err := validation.Validate(query, validation.Required); err != nil {
		return nil, apperr.Invalid("q", err)
	}
	res, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []store.SearchResult{}
	}
	return res, nil
}

// Checksum returns the version token of a note.
func (s *Service) Checksum(ctx context.Context, id string) (string, error) {
	return s.repo.Checksum(ctx, id)
}

// OpenEditor starts an editing session for an existing note.
func (s *Service) OpenEditor(ctx context.Context, owner, id string) (*editor.Session, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	timer := metrics.TrackTranscode("decode")
	defer timer.ObserveDuration()
	return editor.OpenSession(owner, n, s.loc), nil
}

// Save runs the editor save path with the encode pass timed.
func (s *Service) Save(ctx context.Context, sess *editor.Session, ifMatch string) (string, error) {
	timer := metrics.TrackTranscode("encode")
	defer timer.ObserveDuration()
	return sess.Save(ctx, s.Guarded(ifMatch))
}
