package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/catatan/internal/apperr"
	"github.com/starford/catatan/internal/codec"
	"github.com/starford/catatan/internal/models"
)

// Saver is the persistence collaborator a session hands its result to.
type Saver interface {
	Create(ctx context.Context, in models.NoteInput) (string, error)
	Update(ctx context.Context, id string, in models.NoteInput) error
}

// Session is one editing session of a note. It is discarded after Save.
type Session struct {
	// NoteID is empty when composing a new note.
	NoteID   string
	Owner    string
	Title    string
	Progress models.Progress
	Category models.Category
	// Target and DueDate hold raw user input; they are parsed on Save.
	Target  string
	DueDate string
	Buffer  *Buffer

	loc *time.Location
}

// NewSession starts composing a new note.
func NewSession(owner string, loc *time.Location) *Session {
	return &Session{
		Owner:    owner,
		Progress: models.ProgressNotStarted,
		Category: models.CategoryMedium,
		Buffer:   NewBuffer(),
		loc:      loc,
	}
}

// OpenSession starts editing an existing note.
func OpenSession(owner string, note *models.Note, loc *time.Location) *Session {
	s := &Session{
		NoteID:   note.ID,
		Owner:    owner,
		Title:    note.Title,
		Progress: note.Progress,
		Category: note.Category,
		Target:   codec.FormatTarget(note.Target),
		Buffer:   BufferOf(Decode(note)),
		loc:      loc,
	}
	if ns, ok := note.DueDate.Get(); ok {
		s.DueDate = codec.DecodeDueDateForEdit(ns, loc)
	}
	return s
}

// CanSave reports whether the session has an identity to save under.
func (s *Session) CanSave() bool {
	return s.Owner != ""
}

// Input encodes the session into the persisted shape. Validation errors are
// returned before anything is written.
func (s *Session) Input() (models.NoteInput, error) {
	target, err := codec.EncodeTarget(s.Target)
	if err != nil {
		return models.NoteInput{}, err
	}
	due, err := codec.EncodeDueDate(s.DueDate, s.loc)
	if err != nil {
		return models.NoteInput{}, err
	}
	content, images := Encode(s.Buffer.Blocks())
	return models.NoteInput{
		Title:    s.Title,
		Owner:    s.Owner,
		Content:  content,
		Images:   images,
		Progress: s.Progress,
		Category: s.Category,
		Target:   target,
		DueDate:  due,
	}, nil
}

// Save encodes the session and issues exactly one create or update. It
// returns the note id.
func (s *Session) Save(ctx context.Context, saver Saver) (string, error) {
	if !s.CanSave() {
		return "", apperr.ErrSaveDisabled
	}
	in, err := s.Input()
	if err != nil {
		return "", err
	}
	if s.NoteID == "" {
		id, err := saver.Create(ctx, in)
		if err != nil {
			return "", fmt.Errorf("editor: create: %w", err)
		}
		return id, nil
	}
	if err := saver.Update(ctx, s.NoteID, in); err != nil {
		return "", fmt.Errorf("editor: update: %w", err)
	}
	return s.NoteID, nil
}
