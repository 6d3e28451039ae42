package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Guest        bool
	CreatedAt    time.Time
}

type RoomRecord struct {
	ID          string
	Code        string
	OwnerID     string
	Status      string // mirrors the game phase
	EnableAudio bool
	EnableVideo bool
	CreatedAt   time.Time
}

type PlayerRecord struct {
	ID        string
	RoomID    string
	UserID    string
	Name      string
	Kind      string // "human" | "ai"
	Seat      int
	Team      int
	Connected bool
}

// Store persists users, rooms, seated players and serialized game state.
// Game state is an opaque JSON blob keyed by room id.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)

	CreateRoom(ctx context.Context, r RoomRecord) error
	GetRoom(ctx context.Context, id string) (RoomRecord, error)
	GetRoomByCode(ctx context.Context, code string) (RoomRecord, error)
	UpdateRoom(ctx context.Context, r RoomRecord) error
	DeleteRoom(ctx context.Context, id string) error

	CreatePlayer(ctx context.Context, p PlayerRecord) error
	GetPlayersByRoom(ctx context.Context, roomID string) ([]PlayerRecord, error)
	UpdatePlayer(ctx context.Context, p PlayerRecord) error

	SaveGameState(ctx context.Context, roomID string, state []byte) error
	GetGameState(ctx context.Context, roomID string) ([]byte, error)
	UpdateGameState(ctx context.Context, roomID string, state []byte) error
	DeleteGameState(ctx context.Context, roomID string) error

	Close() error
}
