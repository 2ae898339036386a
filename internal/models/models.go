// Package models defines the relational shapes persisted by the store and
// exchanged over the HTTP and WebSocket surfaces.
package models

import "time"

// MessageType enumerates the kinds of chat message the store recognizes.
type MessageType string

const (
	MessageTypeText MessageType = "text"
	MessageTypeFile MessageType = "file"
	MessageTypeCall MessageType = "call"
)

// User is the public shape of an account: password_hash never appears here.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	PublicKey []byte    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// UserWithPassword additionally carries the password hash, for login only.
type UserWithPassword struct {
	User
	PasswordHash string
}

// Message is a single stored chat message between two users.
type Message struct {
	ID         int64       `json:"id"`
	SenderID   int64       `json:"sender_id"`
	ReceiverID int64       `json:"receiver_id"`
	Type       MessageType `json:"type"`
	Content    []byte      `json:"content"`
	Nonce      []byte      `json:"nonce"`
	Timestamp  time.Time   `json:"timestamp"`
	Read       bool        `json:"read"`
}

// Invite is a one-shot registration token.
type Invite struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	UsedBy    *int64     `json:"used_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
