package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pliu/wisp/internal/keycodec"
	"github.com/pliu/wisp/internal/models"
)

// userView is the wire shape of a user: public_key base64-encoded, plus an
// online flag the store doesn't know about.
type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	Online    bool      `json:"online"`
}

func toUserView(u models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		PublicKey: keycodec.Encode(u.PublicKey),
		CreatedAt: u.CreatedAt,
		LastSeen:  u.LastSeen,
	}
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.GetAllUsers()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		v := toUserView(u)
		v.Online = s.Hub.IsOnline(u.ID)
		views = append(views, v)
	}
	jsonResponse(w, http.StatusOK, views)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.Store.GetUserByID(userID(r))
	if err != nil {
		errorResponse(w, http.StatusNotFound, "user not found")
		return
	}
	v := toUserView(*user)
	v.Online = true
	jsonResponse(w, http.StatusOK, v)
}

func (s *Server) handleUpdatePublicKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PublicKey string `json:"public_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PublicKey == "" {
		errorResponse(w, http.StatusBadRequest, "public key required")
		return
	}

	pubKey, err := keycodec.Decode(req.PublicKey)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid public key")
		return
	}

	if err := s.Store.UpdatePublicKey(userID(r), pubKey); err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to update public key")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
