package api

import (
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/catatan/internal/apperr"
	"github.com/starford/catatan/internal/models"
)

const maxUploadBytes = 50 << 20 // 50 MB

// readUpload reads the "file" field of a multipart form.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return nil, "", false
	}
	return data, header.Filename, true
}

func uploadResponse(ref models.ImageRef, size int) ImageUploadResponse {
	return ImageUploadResponse{Key: ref.Key, Size: size, URL: ref.URL()}
}

// UploadImage handles POST /api/images (multipart/form-data, field "file").
//
//	@Summary		Upload an image without attaching it
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		201	{object}	ImageUploadResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if ownerFrom(r.Context()) == "" {
		writeError(w, "upload image", apperr.ErrSaveDisabled)
		return
	}
	data, name, ok := readUpload(w, r)
	if !ok {
		return
	}
	ref, err := h.svc.UploadImage(r.Context(), data, name)
	if err != nil {
		writeError(w, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse(ref, len(data)))
}

// AddNoteImage handles POST /api/notes/{id}/images (multipart, field "file").
//
//	@Summary		Upload an image and append it to a note
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		201	{object}	NoteImageResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/images [post]
func (h *Handler) AddNoteImage(w http.ResponseWriter, r *http.Request) {
	if ownerFrom(r.Context()) == "" {
		writeError(w, "add image", apperr.ErrSaveDisabled)
		return
	}
	data, name, ok := readUpload(w, r)
	if !ok {
		return
	}
	n, ref, err := h.svc.AddImageToNote(r.Context(), noteID(r), data, name)
	if err != nil {
		writeError(w, "add image", err)
		return
	}
	writeJSON(w, http.StatusCreated, NoteImageResponse{Image: uploadResponse(ref, len(data)), Note: n})
}

// ServeImage handles GET /images/{key}.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	abs, err := h.svc.ImagePath(chi.URLParam(r, "key"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, abs)
}
