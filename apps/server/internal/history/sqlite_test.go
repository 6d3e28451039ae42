package history

import (
	"context"
	"testing"
	"time"
)

func newTestService(t *testing.T) *SQLiteService {
	t.Helper()
	svc, err := NewSQLiteService(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteService err: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestRecordAndListRecent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.RecordGame(GameRecord{
		GameID:      "g1",
		RoomCode:    "ABC123",
		WinningTeam: 0,
		FinishedAt:  base,
		Summary:     map[string]any{"rounds": 3},
		UserIDs:     []string{"u1", "u2"},
	})
	svc.RecordGame(GameRecord{
		GameID:      "g2",
		RoomCode:    "XYZ789",
		WinningTeam: 1,
		FinishedAt:  base.Add(time.Hour),
		UserIDs:     []string{"u1"},
	})

	items, err := svc.ListRecent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListRecent err: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].GameID != "g2" {
		t.Fatalf("newest first: got %s", items[0].GameID)
	}
	if items[1].RoomCode != "ABC123" || items[1].WinningTeam != 0 {
		t.Fatalf("item = %+v", items[1])
	}
	if items[1].Summary["rounds"] != float64(3) {
		t.Fatalf("summary = %v", items[1].Summary)
	}

	items, err = svc.ListRecent(ctx, "u2", 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("u2 items = %v, %v", items, err)
	}
}

func TestRecordIsIdempotentPerGame(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec := GameRecord{GameID: "g1", RoomCode: "AAA111", UserIDs: []string{"u1"}}
	svc.RecordGame(rec)
	rec.WinningTeam = 1
	svc.RecordGame(rec)

	items, err := svc.ListRecent(ctx, "u1", 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("items = %v, %v", items, err)
	}
	if items[0].WinningTeam != 1 {
		t.Fatalf("re-record must update: %+v", items[0])
	}
}

func TestGetGame(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.RecordGame(GameRecord{GameID: "g1", RoomCode: "AAA111", UserIDs: []string{"u1"}})

	item, err := svc.GetGame(ctx, "u1", "g1")
	if err != nil || item.GameID != "g1" {
		t.Fatalf("GetGame = %+v, %v", item, err)
	}
	if _, err := svc.GetGame(ctx, "u1", "missing"); err != ErrNotFound {
		t.Fatalf("missing game: err = %v", err)
	}
	if _, err := svc.GetGame(ctx, "u9", "g1"); err != ErrNotFound {
		t.Fatalf("other user: err = %v", err)
	}
}

func TestRecentTrim(t *testing.T) {
	svc := newTestService(t)
	svc.recentLimit = 3
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		svc.RecordGame(GameRecord{
			GameID:     "g" + string(rune('a'+i)),
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
			UserIDs:    []string{"u1"},
		})
	}

	items, err := svc.ListRecent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListRecent err: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d after trim, want 3", len(items))
	}
	if items[0].GameID != "ge" {
		t.Fatalf("newest kept: got %s", items[0].GameID)
	}
}
