package httpapi

import (
	"log"
	"net/http"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	uname := username(r)

	log.Printf("websocket connection attempt from user %d (%s)", uid, uname)

	if err := s.Hub.Upgrade(w, r, uid, uname); err != nil {
		log.Printf("websocket upgrade failed for user %d: %v", uid, err)
	}
}
