// Package store defines the persistence contract the hub and HTTP surface
// depend on. sqlstore provides the only implementation.
package store

import (
	"errors"

	"github.com/pliu/wisp/internal/models"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	ErrUsernameTaken     = errors.New("username already exists")
	ErrNotFound          = errors.New("not found")
	ErrInviteUnavailable = errors.New("invite-unavailable")
)

// Store is the persistence contract for users, messages, and invites.
type Store interface {
	CreateUser(username, passwordHash string, publicKey []byte) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByUsernameWithPassword(username string) (*models.UserWithPassword, error)
	GetUserByID(id int64) (*models.User, error)
	GetAllUsers() ([]models.User, error)
	UpdatePublicKey(userID int64, publicKey []byte) error
	UpdateLastSeen(userID int64) error
	UserCount() (int, error)

	SaveMessage(senderID, receiverID int64, msgType models.MessageType, content, nonce []byte) (*models.Message, error)
	GetMessagesBetween(a, b int64, limit, offset int) ([]models.Message, error)
	MarkMessagesAsRead(senderID, receiverID int64) error
	DeleteMessagesBetween(a, b int64) error

	GenerateInvite() (string, error)
	ValidateInvite(code string) error
	ConsumeInvite(code string, userID int64) error

	Close() error
}
