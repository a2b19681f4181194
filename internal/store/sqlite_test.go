package store

import (
	"path/filepath"
	"testing"
)

func TestSQLiteUserLifecycle(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	user, err := s.CreateUser("alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 || user.ExternalUserID != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	got, err := s.GetUserByExternalID("alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("expected the same user back, got %+v", got)
	}

	missing, err := s.GetUserByExternalID("bob")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown user")
	}

	if _, err := s.CreateUser("alice", "hash2"); err == nil {
		t.Fatalf("duplicate external id must fail")
	}
}
