package sqlstore

import (
	"errors"
	"testing"

	"github.com/pliu/wisp/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser("alice", "hashed", []byte("pubkey"))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("Username = %q, want alice", u.Username)
	}

	fetched, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if fetched.ID != u.ID {
		t.Errorf("ID = %d, want %d", fetched.ID, u.ID)
	}
	if string(fetched.PublicKey) != "pubkey" {
		t.Errorf("PublicKey = %q, want pubkey", fetched.PublicKey)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("bob", "hash1", []byte("k1")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := s.CreateUser("bob", "hash2", []byte("k2"))
	if !errors.Is(err, store.ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUserByUsername("ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByID(999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetUserByUsernameWithPassword(t *testing.T) {
	s := newTestStore(t)

	s.CreateUser("carol", "secrethash", []byte("k"))

	u, err := s.GetUserByUsernameWithPassword("carol")
	if err != nil {
		t.Fatalf("GetUserByUsernameWithPassword: %v", err)
	}
	if u.PasswordHash != "secrethash" {
		t.Errorf("PasswordHash = %q, want secrethash", u.PasswordHash)
	}
}

func TestGetAllUsersEmpty(t *testing.T) {
	s := newTestStore(t)

	users, err := s.GetAllUsers()
	if err != nil {
		t.Fatalf("GetAllUsers: %v", err)
	}
	if users == nil {
		t.Error("expected non-nil empty slice")
	}
	if len(users) != 0 {
		t.Errorf("len = %d, want 0", len(users))
	}
}

func TestUpdatePublicKey(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.CreateUser("dave", "hash", []byte("old"))

	if err := s.UpdatePublicKey(u.ID, []byte("new")); err != nil {
		t.Fatalf("UpdatePublicKey: %v", err)
	}

	fetched, _ := s.GetUserByID(u.ID)
	if string(fetched.PublicKey) != "new" {
		t.Errorf("PublicKey = %q, want new", fetched.PublicKey)
	}
}

func TestUpdateLastSeen(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.CreateUser("erin", "hash", []byte("k"))

	before, _ := s.GetUserByID(u.ID)
	if err := s.UpdateLastSeen(u.ID); err != nil {
		t.Fatalf("UpdateLastSeen: %v", err)
	}
	after, _ := s.GetUserByID(u.ID)

	if after.LastSeen.Before(before.LastSeen) {
		t.Errorf("LastSeen went backwards: %v before %v", after.LastSeen, before.LastSeen)
	}
}

func TestUserCount(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	s.CreateUser("frank", "hash", []byte("k"))

	count, err = s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
