package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/catatan/internal/apperr"
	"github.com/starford/catatan/internal/editor"
	"github.com/starford/catatan/internal/markdown"
	"github.com/starford/catatan/internal/models"
	"github.com/starford/catatan/internal/noteservice"
	"github.com/starford/catatan/internal/store"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ifMatch reads the If-Match header without ETag quotes.
func ifMatch(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

func setETag(w http.ResponseWriter, checksum string) {
	if checksum != "" {
		w.Header().Set("ETag", `"`+checksum+`"`)
	}
}

// writeNote responds with n and its current checksum.
func (h *Handler) writeNote(w http.ResponseWriter, r *http.Request, status int, n *models.Note) {
	cs, err := h.svc.Checksum(r.Context(), n.ID)
	if err != nil {
		writeError(w, "checksum", err)
		return
	}
	setETag(w, cs)
	writeJSON(w, status, NoteResponse{Note: n, Checksum: cs})
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes as summaries, optionally filtered
//	@Tags			notes
//	@Produce		json
//	@Param			category	query		string	false	"Filter by category"	Enums(prioritas, medium, santai)
//	@Param			progress	query		string	false	"Filter by progress"	Enums(belumMulai, sedangDikerjakan, selesai)
//	@Success		200			{object}	NoteListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.Filter
	if v := q.Get("category"); v != "" {
		c, err := models.ParseCategory(v)
		if err != nil {
			writeError(w, "list notes", apperr.Invalid("category", err))
			return
		}
		f.Category = c
	}
	if v := q.Get("progress"); v != "" {
		p, err := models.ParseProgress(v)
		if err != nil {
			writeError(w, "list notes", apperr.Invalid("progress", err))
			return
		}
		f.Progress = p
	}

	items, err := h.svc.Summaries(r.Context(), f)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.FetchByID(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	h.writeNote(w, r, http.StatusOK, n)
}

// GetEditor handles GET /api/notes/{id}/editor.
//
//	@Summary		Open a note in the editor
//	@Tags			editor
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	EditorPayload
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/editor [get]
func (h *Handler) GetEditor(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	sess, err := h.svc.OpenEditor(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeError(w, "open editor", err)
		return
	}
	if cs, err := h.svc.Checksum(r.Context(), id); err == nil {
		setETag(w, cs)
	}
	writeJSON(w, http.StatusOK, payloadOf(sess))
}

// decodePayload reads an EditorPayload into a session.
func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req EditorPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return nil, false
	}
	for i, b := range req.Blocks {
		if _, err := editor.ParseKind(string(b.Kind)); err != nil {
			writeError(w, "decode payload", apperr.Invalid(fmt.Sprintf("blocks[%d].kind", i), err))
			return nil, false
		}
	}

	sess := editor.NewSession(ownerFrom(r.Context()), h.svc.Location())
	sess.Title = req.Title
	if req.Progress != "" {
		sess.Progress = req.Progress
	}
	if req.Category != "" {
		sess.Category = req.Category
	}
	sess.Target = req.Target
	sess.DueDate = req.DueDate
	sess.Buffer = editor.BufferOf(req.Blocks)
	return sess, true
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Save a new note from the editor
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EditorPayload	true	"Editor content"
//	@Success		201		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	h.save(w, r, sess, "", http.StatusCreated)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Save an existing note from the editor
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Note id"
//	@Param			If-Match	header		string			false	"Checksum for optimistic concurrency"
//	@Param			body		body		EditorPayload	true	"Editor content"
//	@Success		200			{object}	NoteResponse
//	@Failure		400			{object}	errResponse
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	sess.NoteID = noteID(r)
	h.save(w, r, sess, ifMatch(r), http.StatusOK)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, sess *editor.Session, match string, status int) {
	id, err := h.svc.Save(r.Context(), sess, match)
	if err != nil {
		writeError(w, "save note", err)
		return
	}
	n, err := h.svc.FetchByID(r.Context(), id)
	if err != nil {
		writeError(w, "save note", err)
		return
	}
	h.writeNote(w, r, status, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if ownerFrom(r.Context()) == "" {
		writeError(w, "delete note", apperr.ErrSaveDisabled)
		return
	}
	if err := h.svc.Delete(r.Context(), noteID(r)); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleChecklist handles POST /api/notes/{id}/checklist/toggle.
//
//	@Summary		Flip one checklist item
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		ToggleRequest	true	"Item to flip"
//	@Success		200		{object}	NoteResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/checklist/toggle [post]
func (h *Handler) ToggleChecklist(w http.ResponseWriter, r *http.Request) {
	if ownerFrom(r.Context()) == "" {
		writeError(w, "toggle checklist", apperr.ErrSaveDisabled)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	n, err := h.svc.ToggleChecklistItem(r.Context(), noteID(r), req.ItemText)
	if err != nil {
		writeError(w, "toggle checklist", err)
		return
	}
	h.writeNote(w, r, http.StatusOK, n)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ExportNote handles GET /api/notes/{id}/export.
//
//	@Summary		Export a note as Markdown
//	@Tags			markdown
//	@Produce		text/markdown
//	@Param			id	path	string	true	"Note id"
//	@Success		200	{string}	string	"Markdown document"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/export [get]
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.FetchByID(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "export note", err)
		return
	}
	out, err := markdown.Export(n, h.svc.Location())
	if err != nil {
		writeError(w, "export note", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.md"`, n.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		slog.Error("export write failed", slog.String("id", n.ID), slog.String("error", err.Error()))
	}
}

// ImportNote handles POST /api/notes/import.
//
//	@Summary		Create a note from a Markdown document
//	@Tags			markdown
//	@Accept			text/markdown
//	@Produce		json
//	@Success		201	{object}	NoteResponse
//	@Failure		400	{object}	errResponse
//	@Failure		403	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/import [post]
func (h *Handler) ImportNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	doc, err := markdown.Import(src)
	if err != nil {
		writeError(w, "import note", err)
		return
	}
	h.save(w, r, doc.Session(ownerFrom(r.Context()), h.svc.Location()), "", http.StatusCreated)
}
