package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/raoakhan/RangMaster/apps/server/internal/storage"
)

const (
	defaultSessionTTL = 30 * 24 * time.Hour
	tokenBytes        = 32
	maxLiveSessions   = 16384
)

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidGuestName   = errors.New("invalid guest name")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

type sessionRecord struct {
	Identity  Identity
	ExpiresAt time.Time
}

// Manager issues opaque session tokens over user records in the store.
// Sessions live in an LRU cache so an abandoned-session flood cannot
// grow memory without bound.
type Manager struct {
	store      storage.Store
	sessionTTL time.Duration
	sessions   *lru.Cache[string, sessionRecord]
}

func NewManager(store storage.Store) (*Manager, error) {
	sessions, err := lru.New[string, sessionRecord](maxLiveSessions)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:      store,
		sessionTTL: defaultSessionTTL,
		sessions:   sessions,
	}, nil
}

func (m *Manager) Close() error { return nil }

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(strings.TrimSpace(username)) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

// Register creates an account and returns an authenticated session token.
func (m *Manager) Register(ctx context.Context, username, password string) (Identity, string, error) {
	if err := validateUsername(username); err != nil {
		return Identity{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return Identity{}, "", err
	}

	normalized := normalizeUsername(username)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, "", err
	}

	user := storage.User{
		ID:           uuid.NewString(),
		Username:     normalized,
		PasswordHash: string(passwordHash),
	}
	if err := m.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return Identity{}, "", ErrUsernameTaken
		}
		return Identity{}, "", err
	}

	id := Identity{UserID: user.ID, Name: normalized}
	return id, m.issueSession(id), nil
}

// Login validates credentials and returns a fresh session.
func (m *Manager) Login(ctx context.Context, username, password string) (Identity, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return Identity{}, "", ErrInvalidCredentials
	}

	user, err := m.store.GetUserByUsername(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Identity{}, "", ErrInvalidCredentials
		}
		return Identity{}, "", err
	}
	if user.Guest || user.PasswordHash == "" {
		return Identity{}, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Identity{}, "", ErrInvalidCredentials
	}

	id := Identity{UserID: user.ID, Name: user.Username}
	return id, m.issueSession(id), nil
}

// Guest creates a throwaway identity with a display name only.
func (m *Manager) Guest(ctx context.Context, name string) (Identity, string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 32 {
		return Identity{}, "", ErrInvalidGuestName
	}

	user := storage.User{ID: uuid.NewString(), Guest: true}
	if err := m.store.CreateUser(ctx, user); err != nil {
		return Identity{}, "", err
	}

	id := Identity{UserID: user.ID, Name: name, Guest: true}
	return id, m.issueSession(id), nil
}

// ResolveSession validates and refreshes a session token.
func (m *Manager) ResolveSession(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	rec, ok := m.sessions.Get(token)
	if !ok {
		return Identity{}, false
	}
	now := time.Now()
	if !now.Before(rec.ExpiresAt) {
		m.sessions.Remove(token)
		return Identity{}, false
	}
	rec.ExpiresAt = now.Add(m.sessionTTL)
	m.sessions.Add(token, rec)
	return rec.Identity, true
}

// Logout invalidates a session token.
func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.sessions.Remove(token)
}

func (m *Manager) issueSession(id Identity) string {
	token := mustToken()
	m.sessions.Add(token, sessionRecord{
		Identity:  id,
		ExpiresAt: time.Now().Add(m.sessionTTL),
	})
	return token
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
