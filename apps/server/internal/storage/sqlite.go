package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, guest, created_at_ms)
VALUES (?, ?, ?, ?, ?)
`, u.ID, u.Username, u.PasswordHash, boolToInt(u.Guest), created.UnixMilli())
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, guest, created_at_ms FROM users WHERE id = ?
`, id))
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, guest, created_at_ms FROM users WHERE username = ?
`, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (User, error) {
	var u User
	var guest int
	var createdMs int64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &guest, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Guest = guest == 1
	u.CreatedAt = time.UnixMilli(createdMs).UTC()
	return u, nil
}

func (s *SQLiteStore) CreateRoom(ctx context.Context, r RoomRecord) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO rooms (id, code, owner_id, status, enable_audio, enable_video, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, r.ID, r.Code, r.OwnerID, r.Status, boolToInt(r.EnableAudio), boolToInt(r.EnableVideo), created.UnixMilli())
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (RoomRecord, error) {
	return s.scanRoom(s.db.QueryRowContext(ctx, `
SELECT id, code, owner_id, status, enable_audio, enable_video, created_at_ms
FROM rooms WHERE id = ?
`, id))
}

func (s *SQLiteStore) GetRoomByCode(ctx context.Context, code string) (RoomRecord, error) {
	return s.scanRoom(s.db.QueryRowContext(ctx, `
SELECT id, code, owner_id, status, enable_audio, enable_video, created_at_ms
FROM rooms WHERE code = ?
`, code))
}

func (s *SQLiteStore) scanRoom(row *sql.Row) (RoomRecord, error) {
	var r RoomRecord
	var audio, video int
	var createdMs int64
	err := row.Scan(&r.ID, &r.Code, &r.OwnerID, &r.Status, &audio, &video, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return RoomRecord{}, ErrNotFound
	}
	if err != nil {
		return RoomRecord{}, err
	}
	r.EnableAudio = audio == 1
	r.EnableVideo = video == 1
	r.CreatedAt = time.UnixMilli(createdMs).UTC()
	return r, nil
}

func (s *SQLiteStore) UpdateRoom(ctx context.Context, r RoomRecord) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE rooms SET code = ?, owner_id = ?, status = ?, enable_audio = ?, enable_video = ?
WHERE id = ?
`, r.Code, r.OwnerID, r.Status, boolToInt(r.EnableAudio), boolToInt(r.EnableVideo), r.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteRoom(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) CreatePlayer(ctx context.Context, p PlayerRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO room_players (id, room_id, user_id, name, kind, seat, team, connected)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, p.ID, p.RoomID, p.UserID, p.Name, p.Kind, p.Seat, p.Team, boolToInt(p.Connected))
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLiteStore) GetPlayersByRoom(ctx context.Context, roomID string) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, room_id, user_id, name, kind, seat, team, connected
FROM room_players WHERE room_id = ? ORDER BY seat ASC
`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRecord
	for rows.Next() {
		var p PlayerRecord
		var connected int
		if err := rows.Scan(&p.ID, &p.RoomID, &p.UserID, &p.Name, &p.Kind, &p.Seat, &p.Team, &connected); err != nil {
			return nil, err
		}
		p.Connected = connected == 1
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdatePlayer(ctx context.Context, p PlayerRecord) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE room_players SET name = ?, kind = ?, seat = ?, team = ?, connected = ?
WHERE id = ? AND room_id = ?
`, p.Name, p.Kind, p.Seat, p.Team, boolToInt(p.Connected), p.ID, p.RoomID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) SaveGameState(ctx context.Context, roomID string, state []byte) error {
	nowMs := time.Now().UTC().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO game_states (room_id, state, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (room_id) DO UPDATE
SET state = excluded.state, updated_at_ms = excluded.updated_at_ms
`, roomID, state, nowMs)
	return err
}

func (s *SQLiteStore) GetGameState(ctx context.Context, roomID string) ([]byte, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx, `
SELECT state FROM game_states WHERE room_id = ?
`, roomID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return state, err
}

func (s *SQLiteStore) UpdateGameState(ctx context.Context, roomID string, state []byte) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE game_states SET state = ?, updated_at_ms = ? WHERE room_id = ?
`, state, time.Now().UTC().UnixMilli(), roomID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteGameState(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM game_states WHERE room_id = ?`, roomID)
	return err
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    guest INTEGER NOT NULL DEFAULT 0,
    created_at_ms INTEGER NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username) WHERE username != ''`,
		`
CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    owner_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'waiting',
    enable_audio INTEGER NOT NULL DEFAULT 0,
    enable_video INTEGER NOT NULL DEFAULT 0,
    created_at_ms INTEGER NOT NULL
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
    connected INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (room_id, id)
)`,
		`
CREATE TABLE IF NOT EXISTS game_states (
    room_id TEXT PRIMARY KEY,
    state BLOB NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
