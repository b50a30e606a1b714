package api

import (
	"github.com/starford/catatan/internal/editor"
	"github.com/starford/catatan/internal/models"
	"github.com/starford/catatan/internal/noteservice"
	"github.com/starford/catatan/internal/store"
)

// EditorPayload is the editor's view of a note: metadata as raw edit
// strings plus the block list. It is both returned by GET .../editor and
// accepted by POST /notes and PUT /notes/{id}.
type EditorPayload struct {
	Title    string          `json:"title" example:"Belanja"`
	Progress models.Progress `json:"progress" example:"belumMulai"`
	Category models.Category `json:"category" example:"medium"`
	Target   string          `json:"target" example:"12"`
	DueDate  string          `json:"dueDate" example:"2024-06-01T10:05"`
	Blocks   []editor.Block  `json:"blocks" validate:"required"`
	// CanSave is set on responses only.
	CanSave bool `json:"canSave"`
}

// NoteResponse wraps one stored note with its version token.
type NoteResponse struct {
	Note     *models.Note `json:"note" validate:"required"`
	Checksum string       `json:"checksum" validate:"required"`
}

// NoteListResponse wraps the list view.
type NoteListResponse struct {
	Notes []noteservice.Summary `json:"notes" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results" validate:"required"`
}

// ToggleRequest names the checklist item to flip.
type ToggleRequest struct {
	ItemText string `json:"itemText" example:"milk" validate:"required"`
}

// ImageUploadResponse is returned after a successful image upload.
type ImageUploadResponse struct {
	Key  string `json:"key" example:"0b7c...png" validate:"required"`
	Size int    `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/images/0b7c...png" validate:"required"`
}

// NoteImageResponse is returned after attaching an image to a note.
type NoteImageResponse struct {
	Image ImageUploadResponse `json:"image"`
	Note  *models.Note        `json:"note"`
}

func payloadOf(s *editor.Session) EditorPayload {
	return EditorPayload{
		Title:    s.Title,
		Progress: s.Progress,
		Category: s.Category,
		Target:   s.Target,
		DueDate:  s.DueDate,
		Blocks:   s.Buffer.Blocks(),
		CanSave:  s.CanSave(),
	}
}
