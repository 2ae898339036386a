// Package httpapi wires the store, token service, and hub into the REST
// and WebSocket surface described by the server's route table.
package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pliu/wisp/internal/authtoken"
	"github.com/pliu/wisp/internal/hub"
	"github.com/pliu/wisp/internal/store"
)

// Server bundles the dependencies every handler needs. It has no package-
// level counterpart; the composition root builds exactly one.
type Server struct {
	Store  store.Store
	Tokens *authtoken.Service
	Hub    *hub.Hub
	Debug  bool
}

// Router builds the full route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/invite/validate", s.handleValidateInvite).Methods(http.MethodPost)

	r.Handle("/api/users", s.authMiddleware(http.HandlerFunc(s.handleGetUsers))).Methods(http.MethodGet)
	r.Handle("/api/users/me", s.authMiddleware(http.HandlerFunc(s.handleGetMe))).Methods(http.MethodGet)
	r.Handle("/api/users/update-key", s.authMiddleware(http.HandlerFunc(s.handleUpdatePublicKey))).Methods(http.MethodPost)

	r.Handle("/api/messages/clear", s.authMiddleware(http.HandlerFunc(s.handleClearMessages))).Methods(http.MethodPost)
	r.Handle("/api/messages/{other_id}", s.authMiddleware(http.HandlerFunc(s.handleGetMessages))).Methods(http.MethodGet)
	r.Handle("/api/messages", s.authMiddleware(http.HandlerFunc(s.handleSendMessage))).Methods(http.MethodPost)

	r.Handle("/api/invites", s.authMiddleware(http.HandlerFunc(s.handleCreateInvite))).Methods(http.MethodPost)

	r.Handle("/api/ws", s.authMiddleware(http.HandlerFunc(s.handleWebSocket))).Methods(http.MethodGet)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Debug {
			log.Printf("-> %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
