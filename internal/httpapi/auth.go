package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pliu/wisp/internal/keycodec"
	"github.com/pliu/wisp/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
	PublicKey  string `json:"public_key"`
}

// handleRegister implements the bootstrap rule: registration needs no
// invite code while the store has zero users; afterward an unused invite
// is required. The invite is only consumed when the caller supplied one,
// even in bootstrap mode — carried over from the original handler as-is.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Username) < 3 || len(req.Username) > 32 {
		errorResponse(w, http.StatusBadRequest, "invalid username")
		return
	}
	if len(req.Password) < 6 {
		errorResponse(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if req.PublicKey == "" {
		errorResponse(w, http.StatusBadRequest, "public key required")
		return
	}

	if _, err := s.Store.GetUserByUsername(req.Username); err == nil {
		errorResponse(w, http.StatusBadRequest, "username already exists")
		return
	}

	count, err := s.Store.UserCount()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "database error")
		return
	}

	if count > 0 {
		if req.InviteCode == "" {
			errorResponse(w, http.StatusBadRequest, "invite code required")
			return
		}
		if err := s.Store.ValidateInvite(req.InviteCode); err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid or used invite code")
			return
		}
	}

	pubKey, err := keycodec.Decode(req.PublicKey)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid public key")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := s.Store.CreateUser(req.Username, string(passwordHash), pubKey)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			errorResponse(w, http.StatusBadRequest, "username already exists")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "database error")
		return
	}

	if req.InviteCode != "" {
		_ = s.Store.ConsumeInvite(req.InviteCode, user.ID)
	}

	token, err := s.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  toUserView(*user),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" {
		errorResponse(w, http.StatusBadRequest, "username required")
		return
	}
	if req.Password == "" {
		errorResponse(w, http.StatusBadRequest, "password required")
		return
	}

	user, err := s.Store.GetUserByUsernameWithPassword(req.Username)
	if err != nil {
		errorResponse(w, http.StatusNotFound, "user not found")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		errorResponse(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, err := s.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  toUserView(user.User),
	})
}

func (s *Server) handleValidateInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.Store.ValidateInvite(req.Code); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid or used invite code")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	code, err := s.Store.GenerateInvite()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to generate invite")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"code": code})
}
