package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "rangmaster_history.db"

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	dbPath, err := historyLocalDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
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
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{
		db:          db,
		recentLimit: recentLimitFromEnv(),
	}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) RecordGame(rec GameRecord) {
	if strings.TrimSpace(rec.GameID) == "" || len(rec.UserIDs) == 0 {
		return
	}
	summaryRaw, err := marshalSummary(rec.Summary)
	if err != nil {
		log.Printf("[History] marshal game summary failed: game=%s err=%v", rec.GameID, err)
		return
	}
	playedAtMs := rec.FinishedAt.UTC().UnixMilli()
	if rec.FinishedAt.IsZero() {
		playedAtMs = time.Now().UTC().UnixMilli()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[History] begin record tx failed: game=%s err=%v", rec.GameID, err)
		return
	}
	defer tx.Rollback()

	for _, userID := range rec.UserIDs {
		if strings.TrimSpace(userID) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO game_history (user_id, game_id, room_code, winning_team, played_at_ms, summary_json)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, game_id) DO UPDATE
SET
    room_code = excluded.room_code,
    winning_team = excluded.winning_team,
    played_at_ms = excluded.played_at_ms,
    summary_json = excluded.summary_json
`, userID, rec.GameID, rec.RoomCode, rec.WinningTeam, playedAtMs, string(summaryRaw)); err != nil {
			log.Printf("[History] record game failed: user=%s game=%s err=%v", userID, rec.GameID, err)
			return
		}

		if s.recentLimit > 0 {
			if _, err := tx.ExecContext(ctx, `
DELETE FROM game_history
WHERE user_id = ?
  AND id IN (
      SELECT id
      FROM game_history
      WHERE user_id = ?
      ORDER BY played_at_ms DESC, id DESC
      LIMIT -1 OFFSET ?
  )
`, userID, userID, s.recentLimit); err != nil {
				log.Printf("[History] trim history failed: user=%s err=%v", userID, err)
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[History] commit record failed: game=%s err=%v", rec.GameID, err)
	}
}

func (s *SQLiteService) ListRecent(ctx context.Context, userID string, limit int) ([]HistoryItem, error) {
	if strings.TrimSpace(userID) == "" {
		return []HistoryItem{}, nil
	}
	limit = clampListLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, room_code, winning_team, played_at_ms, summary_json
FROM game_history
WHERE user_id = ?
ORDER BY played_at_ms DESC, id DESC
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0, limit)
	for rows.Next() {
		var item HistoryItem
		var playedAtMs int64
		var summaryRaw []byte
		if err := rows.Scan(&item.GameID, &item.RoomCode, &item.WinningTeam, &playedAtMs, &summaryRaw); err != nil {
			return nil, err
		}
		item.PlayedAt = time.UnixMilli(playedAtMs).UTC()
		item.Summary = unmarshalSummary(summaryRaw)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteService) GetGame(ctx context.Context, userID, gameID string) (HistoryItem, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(gameID) == "" {
		return HistoryItem{}, ErrNotFound
	}

	var item HistoryItem
	var playedAtMs int64
	var summaryRaw []byte
	err := s.db.QueryRowContext(ctx, `
SELECT game_id, room_code, winning_team, played_at_ms, summary_json
FROM game_history
WHERE user_id = ? AND game_id = ?
`, userID, gameID).Scan(&item.GameID, &item.RoomCode, &item.WinningTeam, &playedAtMs, &summaryRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryItem{}, ErrNotFound
	}
	if err != nil {
		return HistoryItem{}, err
	}
	item.PlayedAt = time.UnixMilli(playedAtMs).UTC()
	item.Summary = unmarshalSummary(summaryRaw)
	return item, nil
}

func ensureSQLiteHistorySchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS game_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    game_id TEXT NOT NULL,
    room_code TEXT NOT NULL DEFAULT '',
    winning_team INTEGER NOT NULL DEFAULT -1,
    played_at_ms INTEGER NOT NULL,
    summary_json TEXT NOT NULL DEFAULT '{}',
    UNIQUE (user_id, game_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_game_history_recent ON game_history(user_id, played_at_ms DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func historyLocalDatabasePathFromEnv() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("HISTORY_LOCAL_DATABASE_PATH")),
		strings.TrimSpace(os.Getenv("LOCAL_DATABASE_PATH")),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return filepath.Clean(candidate), nil
		}
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "RangMaster", defaultLocalDBName), nil
}

func marshalSummary(summary map[string]any) ([]byte, error) {
	if summary == nil {
		summary = map[string]any{}
	}
	return json.Marshal(summary)
}

func unmarshalSummary(raw []byte) map[string]any {
	summary := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &summary)
	}
	return summary
}
