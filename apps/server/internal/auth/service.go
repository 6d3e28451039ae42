package auth

import "context"

// Identity is the opaque per-session identity carried by a connection.
type Identity struct {
	UserID string
	Name   string
	Guest  bool
}

// Service is the auth/session contract consumed by gateway and HTTP handlers.
type Service interface {
	Register(ctx context.Context, username, password string) (Identity, string, error)
	Login(ctx context.Context, username, password string) (Identity, string, error)
	Guest(ctx context.Context, name string) (Identity, string, error)
	ResolveSession(token string) (Identity, bool)
	Logout(token string)
	Close() error
}
