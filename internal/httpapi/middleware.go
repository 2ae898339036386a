package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
)

// contextKey is unexported so values bound by this package can never
// collide with, or be forged by, another package's context key.
type contextKey int

const (
	ctxUserID contextKey = iota
	ctxUsername
)

// authMiddleware extracts a bearer token from the Authorization header or,
// for websocket upgrade requests that cannot set headers, the `token`
// query parameter, verifies it, and binds the claims into the request
// context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			log.Printf("auth failed: missing token for %s %s", r.Method, r.URL.Path)
			errorResponse(w, http.StatusUnauthorized, "missing authorization")
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		claims, err := s.Tokens.Verify(tokenString)
		if err != nil {
			log.Printf("auth failed: invalid token for %s %s: %v", r.Method, r.URL.Path, err)
			errorResponse(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUsername, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) int64 {
	return r.Context().Value(ctxUserID).(int64)
}

func username(r *http.Request) string {
	return r.Context().Value(ctxUsername).(string)
}
