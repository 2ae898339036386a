package sqlstore

import (
	"testing"

	"github.com/pliu/wisp/internal/models"
)

func TestSaveAndGetMessage(t *testing.T) {
	s := newTestStore(t)
	alice, _ := s.CreateUser("alice", "h", []byte("k1"))
	bob, _ := s.CreateUser("bob", "h", []byte("k2"))

	msg, err := s.SaveMessage(alice.ID, bob.ID, models.MessageTypeText, []byte("cipher"), []byte("nonce"))
	if err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if msg.ID == 0 {
		t.Error("expected non-zero message ID")
	}
	if msg.Type != models.MessageTypeText {
		t.Errorf("Type = %q, want text", msg.Type)
	}
	if msg.Read {
		t.Error("expected Read = false for new message")
	}
}

func TestSaveMessageDefaultsType(t *testing.T) {
	s := newTestStore(t)
	alice, _ := s.CreateUser("alice", "h", []byte("k1"))
	bob, _ := s.CreateUser("bob", "h", []byte("k2"))

	msg, err := s.SaveMessage(alice.ID, bob.ID, "", []byte("c"), []byte("n"))
	if err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if msg.Type != models.MessageTypeText {
		t.Errorf("Type = %q, want text", msg.Type)
	}
}

func TestGetMessagesBetweenOrderingAndEmpty(t *testing.T) {
	s := newTestStore(t)
	alice, _ := s.CreateUser("alice", "h", []byte("k1"))
	bob, _ := s.CreateUser("bob", "h", []byte("k2"))
	carol, _ := s.CreateUser("carol", "h", []byte("k3"))

	empty, err := s.GetMessagesBetween(alice.ID, bob.ID, 50, 0)
	if err != nil {
		t.Fatalf("GetMessagesBetween: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}

	s.SaveMessage(alice.ID, bob.ID, models.MessageTypeText, []byte("1"), []byte("n"))
	s.SaveMessage(bob.ID, alice.ID, models.MessageTypeText, []byte("2"), []byte("n"))
	s.SaveMessage(alice.ID, carol.ID, models.MessageTypeText, []byte("other-pair"), []byte("n"))

	msgs, err := s.GetMessagesBetween(alice.ID, bob.ID, 50, 0)
	if err != nil {
		t.Fatalf("GetMessagesBetween: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.After(msgs[i-1].Timestamp) {
			t.Error("messages not ordered newest first")
		}
	}
}

func TestMarkMessagesAsRead(t *testing.T) {
	s := newTestStore(t)
	alice, _ := s.CreateUser("alice", "h", []byte("k1"))
	bob, _ := s.CreateUser("bob", "h", []byte("k2"))

	s.SaveMessage(alice.ID, bob.ID, models.MessageTypeText, []byte("hi"), []byte("n"))

	if err := s.MarkMessagesAsRead(alice.ID, bob.ID); err != nil {
		t.Fatalf("MarkMessagesAsRead: %v", err)
	}

	msgs, _ := s.GetMessagesBetween(alice.ID, bob.ID, 50, 0)
	if !msgs[0].Read {
		t.Error("expected message to be marked read")
	}

	// Marking again with no unread messages must still succeed.
	if err := s.MarkMessagesAsRead(alice.ID, bob.ID); err != nil {
		t.Errorf("MarkMessagesAsRead (no-op): %v", err)
	}
}

func TestDeleteMessagesBetween(t *testing.T) {
	s := newTestStore(t)
	alice, _ := s.CreateUser("alice", "h", []byte("k1"))
	bob, _ := s.CreateUser("bob", "h", []byte("k2"))

	s.SaveMessage(alice.ID, bob.ID, models.MessageTypeText, []byte("1"), []byte("n"))
	s.SaveMessage(bob.ID, alice.ID, models.MessageTypeText, []byte("2"), []byte("n"))

	if err := s.DeleteMessagesBetween(alice.ID, bob.ID); err != nil {
		t.Fatalf("DeleteMessagesBetween: %v", err)
	}

	msgs, _ := s.GetMessagesBetween(alice.ID, bob.ID, 50, 0)
	if len(msgs) != 0 {
		t.Errorf("len = %d, want 0", len(msgs))
	}
}
