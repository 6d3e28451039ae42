package history

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type PostgresService struct {
	db          *sql.DB
	recentLimit int
}

func NewPostgresService(dsn string) (*PostgresService, error) {
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
	if err := ensurePostgresHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresService{
		db:          db,
		recentLimit: recentLimitFromEnv(),
	}, nil
}

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresService) RecordGame(rec GameRecord) {
	if strings.TrimSpace(rec.GameID) == "" || len(rec.UserIDs) == 0 {
		return
	}
	summaryRaw, err := marshalSummary(rec.Summary)
	if err != nil {
		log.Printf("[History] marshal game summary failed: game=%s err=%v", rec.GameID, err)
		return
	}
	playedAt := rec.FinishedAt
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
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
INSERT INTO game_history (user_id, game_id, room_code, winning_team, played_at, summary_json)
VALUES ($1, $2, $3, $4, $5, $6::jsonb)
ON CONFLICT (user_id, game_id) DO UPDATE
SET
    room_code = EXCLUDED.room_code,
    winning_team = EXCLUDED.winning_team,
    played_at = EXCLUDED.played_at,
    summary_json = EXCLUDED.summary_json
`, userID, rec.GameID, rec.RoomCode, rec.WinningTeam, playedAt, string(summaryRaw)); err != nil {
			log.Printf("[History] record game failed: user=%s game=%s err=%v", userID, rec.GameID, err)
			return
		}

		if s.recentLimit > 0 {
			if _, err := tx.ExecContext(ctx, `
DELETE FROM game_history
WHERE user_id = $1
  AND id IN (
      SELECT id
      FROM game_history
      WHERE user_id = $1
      ORDER BY played_at DESC, id DESC
      OFFSET $2
  )
`, userID, s.recentLimit); err != nil {
				log.Printf("[History] trim history failed: user=%s err=%v", userID, err)
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[History] commit record failed: game=%s err=%v", rec.GameID, err)
	}
}

func (s *PostgresService) ListRecent(ctx context.Context, userID string, limit int) ([]HistoryItem, error) {
	if strings.TrimSpace(userID) == "" {
		return []HistoryItem{}, nil
	}
	limit = clampListLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, room_code, winning_team, played_at, summary_json
FROM game_history
WHERE user_id = $1
ORDER BY played_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0, limit)
	for rows.Next() {
		var item HistoryItem
		var summaryRaw []byte
		if err := rows.Scan(&item.GameID, &item.RoomCode, &item.WinningTeam, &item.PlayedAt, &summaryRaw); err != nil {
			return nil, err
		}
		item.Summary = unmarshalSummary(summaryRaw)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresService) GetGame(ctx context.Context, userID, gameID string) (HistoryItem, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(gameID) == "" {
		return HistoryItem{}, ErrNotFound
	}

	var item HistoryItem
	var summaryRaw []byte
	err := s.db.QueryRowContext(ctx, `
SELECT game_id, room_code, winning_team, played_at, summary_json
FROM game_history
WHERE user_id = $1 AND game_id = $2
`, userID, gameID).Scan(&item.GameID, &item.RoomCode, &item.WinningTeam, &item.PlayedAt, &summaryRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryItem{}, ErrNotFound
	}
	if err != nil {
		return HistoryItem{}, err
	}
	item.Summary = unmarshalSummary(summaryRaw)
	return item, nil
}

func ensurePostgresHistorySchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS game_history (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    game_id TEXT NOT NULL,
    room_code TEXT NOT NULL DEFAULT '',
    winning_team INTEGER NOT NULL DEFAULT -1,
    played_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    summary_json JSONB NOT NULL DEFAULT '{}',
    UNIQUE (user_id, game_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_game_history_recent ON game_history(user_id, played_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
