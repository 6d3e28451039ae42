package auth

import (
	"context"
	"testing"
	"time"

	"github.com/raoakhan/RangMaster/apps/server/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(storage.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewManager err: %v", err)
	}
	return m
}

func TestRegisterAndLogin(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, token, err := m.Register(ctx, "Aisha_K", "hunter22")
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if id.Name != "aisha_k" {
		t.Fatalf("name = %s, want normalized aisha_k", id.Name)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}

	got, ok := m.ResolveSession(token)
	if !ok || got.UserID != id.UserID {
		t.Fatalf("ResolveSession = %+v, %v", got, ok)
	}

	if _, _, err := m.Register(ctx, "aisha_k", "another6"); err != ErrUsernameTaken {
		t.Fatalf("duplicate register: err = %v, want ErrUsernameTaken", err)
	}

	id2, token2, err := m.Login(ctx, "AISHA_K", "hunter22")
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if id2.UserID != id.UserID || token2 == token {
		t.Fatalf("login identity/token mismatch: %+v", id2)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, _, err := m.Register(ctx, "bilal", "secret9"); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if _, _, err := m.Login(ctx, "bilal", "wrongpw"); err != ErrInvalidCredentials {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, _, err := m.Login(ctx, "nobody", "secret9"); err != ErrInvalidCredentials {
		t.Fatalf("unknown user: err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, _, err := m.Register(ctx, "ab", "secret9"); err != ErrInvalidUsername {
		t.Fatalf("short username: err = %v", err)
	}
	if _, _, err := m.Register(ctx, "has space", "secret9"); err != ErrInvalidUsername {
		t.Fatalf("space in username: err = %v", err)
	}
	if _, _, err := m.Register(ctx, "chandni", "short"); err != ErrInvalidPassword {
		t.Fatalf("short password: err = %v", err)
	}
}

func TestGuestSessions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, token, err := m.Guest(ctx, "  Danish  ")
	if err != nil {
		t.Fatalf("Guest err: %v", err)
	}
	if !id.Guest || id.Name != "Danish" {
		t.Fatalf("guest identity = %+v", id)
	}
	got, ok := m.ResolveSession(token)
	if !ok || !got.Guest {
		t.Fatalf("guest ResolveSession = %+v, %v", got, ok)
	}

	// Guests have no credentials to log back in with.
	if _, _, err := m.Login(ctx, "Danish", "whatever"); err != ErrInvalidCredentials {
		t.Fatalf("guest login: err = %v", err)
	}

	if _, _, err := m.Guest(ctx, ""); err != ErrInvalidGuestName {
		t.Fatalf("empty guest name: err = %v", err)
	}
}

func TestLogoutAndExpiry(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, token, err := m.Guest(ctx, "Aisha")
	if err != nil {
		t.Fatalf("Guest err: %v", err)
	}
	m.Logout(token)
	if _, ok := m.ResolveSession(token); ok {
		t.Fatal("session must be invalid after logout")
	}

	m.sessionTTL = -time.Second
	_, token, err = m.Guest(ctx, "Bilal")
	if err != nil {
		t.Fatalf("Guest err: %v", err)
	}
	if _, ok := m.ResolveSession(token); ok {
		t.Fatal("expired session must not resolve")
	}
}
