package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pliu/wisp/internal/hub"
	"github.com/pliu/wisp/internal/keycodec"
	"github.com/pliu/wisp/internal/models"
)

const defaultMessageLimit = 50

// handleGetMessages returns the conversation with {other_id} and marks the
// other party's messages as read, emitting a read_receipt frame to them if
// they are currently connected.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	me := userID(r)

	otherID, err := strconv.ParseInt(mux.Vars(r)["other_id"], 10, 64)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if _, err := s.Store.GetUserByID(otherID); err != nil {
		errorResponse(w, http.StatusNotFound, "user not found")
		return
	}

	messages, err := s.Store.GetMessagesBetween(me, otherID, defaultMessageLimit, 0)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	if err := s.Store.MarkMessagesAsRead(otherID, me); err == nil {
		s.Hub.BroadcastReadReceipt(otherID, me)
	}

	jsonResponse(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	Nonce      string `json:"nonce"`
}

// handleSendMessage persists the message first; real-time delivery is
// best-effort and never fails the request (§7 recovery policy).
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sender := userID(r)

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReceiverID == 0 || req.Content == "" || req.Nonce == "" {
		errorResponse(w, http.StatusBadRequest, "missing required fields")
		return
	}

	content, err := keycodec.Decode(req.Content)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid content encoding")
		return
	}
	nonce, err := keycodec.Decode(req.Nonce)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid nonce encoding")
		return
	}

	msgType := models.MessageType(req.Type)
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	msg, err := s.Store.SaveMessage(sender, req.ReceiverID, msgType, content, nonce)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	s.Hub.SendMessage(msg.ID, sender, req.ReceiverID, hub.FrameMessage,
		req.Content, req.Nonce, msg.Timestamp)

	jsonResponse(w, http.StatusOK, msg)
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	me := userID(r)

	var req struct {
		OtherUserID int64 `json:"other_user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := s.Store.DeleteMessagesBetween(me, req.OtherUserID); err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to clear messages")
		return
	}

	s.Hub.BroadcastClearMessages(me, req.OtherUserID)

	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
