package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "Alice@Example.com", "hash-1")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Error("Expected ID to be assigned")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("Email not normalized: %s", u.Email)
	}
	if u.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}

	got, err := s.UserByEmail(ctx, "  ALICE@example.COM ")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("UserByEmail returned wrong user: %s", got.ID)
	}
	if got.PasswordHash != "hash-1" {
		t.Errorf("Password hash mismatch: %s", got.PasswordHash)
	}

	byID, err := s.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if byID.Email != u.Email {
		t.Errorf("UserByID returned wrong user: %s", byID.Email)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "bob@example.com", "hash-1"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := s.CreateUser(ctx, "BOB@example.com", "hash-2")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestUserLookup_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByEmail: expected ErrNotFound, got %v", err)
	}
	if _, err := s.UserByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByID: expected ErrNotFound, got %v", err)
	}
}
