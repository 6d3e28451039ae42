package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists records in PostgreSQL for multi-instance
// deployments sharing one database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, guest, created_at)
VALUES ($1, $2, $3, $4, $5)
`, u.ID, u.Username, u.PasswordHash, u.Guest, created)
	if isPostgresUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, guest, created_at FROM users WHERE id = $1
`, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, guest, created_at FROM users WHERE username = $1
`, username))
}

func (s *PostgresStore) scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Guest, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) CreateRoom(ctx context.Context, r RoomRecord) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO rooms (id, code, owner_id, status, enable_audio, enable_video, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, r.ID, r.Code, r.OwnerID, r.Status, r.EnableAudio, r.EnableVideo, created)
	if isPostgresUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) GetRoom(ctx context.Context, id string) (RoomRecord, error) {
	return s.scanRoom(s.db.QueryRowContext(ctx, `
SELECT id, code, owner_id, status, enable_audio, enable_video, created_at
FROM rooms WHERE id = $1
`, id))
}

func (s *PostgresStore) GetRoomByCode(ctx context.Context, code string) (RoomRecord, error) {
	return s.scanRoom(s.db.QueryRowContext(ctx, `
SELECT id, code, owner_id, status, enable_audio, enable_video, created_at
FROM rooms WHERE code = $1
`, code))
}

func (s *PostgresStore) scanRoom(row *sql.Row) (RoomRecord, error) {
	var r RoomRecord
	err := row.Scan(&r.ID, &r.Code, &r.OwnerID, &r.Status, &r.EnableAudio, &r.EnableVideo, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RoomRecord{}, ErrNotFound
	}
	if err != nil {
		return RoomRecord{}, err
	}
	return r, nil
}

func (s *PostgresStore) UpdateRoom(ctx context.Context, r RoomRecord) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE rooms SET code = $1, owner_id = $2, status = $3, enable_audio = $4, enable_video = $5
WHERE id = $6
`, r.Code, r.OwnerID, r.Status, r.EnableAudio, r.EnableVideo, r.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteRoom(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, p PlayerRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO room_players (id, room_id, user_id, name, kind, seat, team, connected)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, p.ID, p.RoomID, p.UserID, p.Name, p.Kind, p.Seat, p.Team, p.Connected)
	if isPostgresUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) GetPlayersByRoom(ctx context.Context, roomID string) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, room_id, user_id, name, kind, seat, team, connected
FROM room_players WHERE room_id = $1 ORDER BY seat ASC
`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRecord
	for rows.Next() {
		var p PlayerRecord
		if err := rows.Scan(&p.ID, &p.RoomID, &p.UserID, &p.Name, &p.Kind, &p.Seat, &p.Team, &p.Connected); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdatePlayer(ctx context.Context, p PlayerRecord) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE room_players SET name = $1, kind = $2, seat = $3, team = $4, connected = $5
WHERE id = $6 AND room_id = $7
`, p.Name, p.Kind, p.Seat, p.Team, p.Connected, p.ID, p.RoomID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) SaveGameState(ctx context.Context, roomID string, state []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO game_states (room_id, state, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (room_id) DO UPDATE
SET state = EXCLUDED.state, updated_at = NOW()
`, roomID, state)
	return err
}

func (s *PostgresStore) GetGameState(ctx context.Context, roomID string) ([]byte, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx, `
SELECT state FROM game_states WHERE room_id = $1
`, roomID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return state, err
}

func (s *PostgresStore) UpdateGameState(ctx context.Context, roomID string, state []byte) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE game_states SET state = $1, updated_at = NOW() WHERE room_id = $2
`, state, roomID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteGameState(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM game_states WHERE room_id = $1`, roomID)
	return err
}

func ensurePostgresSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    guest BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username) WHERE username != ''`,
		`
CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    owner_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'waiting',
    enable_audio BOOLEAN NOT NULL DEFAULT FALSE,
    enable_video BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`
CREATE TABLE IF NOT EXISTS room_players (
    id TEXT NOT NULL,
    room_id TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    seat INTEGER NOT NULL,
    team INTEGER NOT NULL,
    connected BOOLEAN NOT NULL DEFAULT TRUE,
    PRIMARY KEY (room_id, id)
)`,
		`
CREATE TABLE IF NOT EXISTS game_states (
    room_id TEXT PRIMARY KEY,
    state BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isPostgresUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
