// Package api implements the catatan REST API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// OwnerHeader names the caller when auth is disabled.
const OwnerHeader = "X-Owner"

type ownerKey struct{}

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			got := strings.TrimPrefix(auth, "Bearer ")
			if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityMiddleware resolves who is acting. In token mode the configured
// owner is used; otherwise the X-Owner header names the caller. Requests
// without an identity are served read-only.
func IdentityMiddleware(tokenMode bool, owner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(OwnerHeader))
			if tokenMode && owner != "" {
				id = owner
			}
			if id != "" {
				r = r.WithContext(context.WithValue(r.Context(), ownerKey{}, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ownerFrom returns the acting identity, or "" when there is none.
func ownerFrom(ctx context.Context) string {
	s, _ := ctx.Value(ownerKey{}).(string)
	return s
}
