package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/catatan/internal/noteservice"
)

// AuthConfig controls the auth and identity middleware.
type AuthConfig struct {
	// TokenMode enforces a Bearer token and acts as Owner.
	TokenMode bool
	Token     string
	Owner     string
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, auth AuthConfig, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(auth.TokenMode, auth.Token))
	r.Use(IdentityMiddleware(auth.TokenMode, auth.Owner))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/import", h.ImportNote)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Put("/", h.UpdateNote)
		r.Delete("/", h.DeleteNote)
		r.Get("/editor", h.GetEditor)
		r.Get("/export", h.ExportNote)
		r.Post("/checklist/toggle", h.ToggleChecklist)
		r.Post("/images", h.AddNoteImage)
	})

	// Images upload (auth-protected). Serving lives outside /api.
	r.Post("/images", h.UploadImage)

	// Search.
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// ImageRouter serves stored images at /{key}.
func ImageRouter(svc *noteservice.Service) chi.Router {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/{key}", h.ServeImage)
	return r
}
