package room

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/raoakhan/RangMaster/apps/server/internal/history"
	"github.com/raoakhan/RangMaster/apps/server/internal/storage"
	"github.com/raoakhan/RangMaster/rang"
)

// All store writes here are best effort. A failed write is logged and
// never fails the game event that triggered it.

const persistTimeout = 3 * time.Second

func (r *Room) persistCreateRoom() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := r.store.CreateRoom(ctx, storage.RoomRecord{
		ID:          r.ID,
		Code:        r.Code,
		OwnerID:     r.cfg.OwnerID,
		Status:      StatusWaiting,
		EnableAudio: r.cfg.EnableAudio,
		EnableVideo: r.cfg.EnableVideo,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[Room %s] persist room failed: %v", r.ID, err)
	}
}

func (r *Room) persistRoomStatus(status string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := r.store.UpdateRoom(ctx, storage.RoomRecord{
		ID:          r.ID,
		Code:        r.Code,
		OwnerID:     r.cfg.OwnerID,
		Status:      status,
		EnableAudio: r.cfg.EnableAudio,
		EnableVideo: r.cfg.EnableVideo,
	})
	if err != nil {
		log.Printf("[Room %s] persist room status failed: %v", r.ID, err)
	}
}

func (r *Room) deleteRoomRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.store.DeleteRoom(ctx, r.ID); err != nil {
		log.Printf("[Room %s] delete room record failed: %v", r.ID, err)
	}
}

func (r *Room) persistCreatePlayer(p *rang.Player) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	userID := p.ID
	if p.IsAI() {
		userID = ""
	}
	err := r.store.CreatePlayer(ctx, storage.PlayerRecord{
		ID:        p.ID,
		RoomID:    r.ID,
		UserID:    userID,
		Name:      p.Name,
		Kind:      p.Kind.String(),
		Seat:      p.Seat,
		Team:      int(p.Team),
		Connected: p.Connected,
	})
	if err != nil {
		log.Printf("[Room %s] persist player %s failed: %v", r.ID, p.ID, err)
	}
}

func (r *Room) persistPlayerConnected(playerID string, connected bool) {
	p := r.game.Player(playerID)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	userID := p.ID
	if p.IsAI() {
		userID = ""
	}
	err := r.store.UpdatePlayer(ctx, storage.PlayerRecord{
		ID:        p.ID,
		RoomID:    r.ID,
		UserID:    userID,
		Name:      p.Name,
		Kind:      p.Kind.String(),
		Seat:      p.Seat,
		Team:      int(p.Team),
		Connected: connected,
	})
	if err != nil {
		log.Printf("[Room %s] persist player state failed: %v", r.ID, err)
	}
}

// saveGameState snapshots the full unfiltered state at round boundaries.
func (r *Room) saveGameState() {
	raw, err := json.Marshal(r.game.Snapshot())
	if err != nil {
		log.Printf("[Room %s] marshal game state failed: %v", r.ID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.store.SaveGameState(ctx, r.ID, raw); err != nil {
		log.Printf("[Room %s] save game state failed: %v", r.ID, err)
	}
}

func (r *Room) deleteGameState() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.store.DeleteGameState(ctx, r.ID); err != nil && err != storage.ErrNotFound {
		log.Printf("[Room %s] delete game state failed: %v", r.ID, err)
	}
}

// recordHistory appends the finished game for every human participant.
func (r *Room) recordHistory(winner int) {
	snap := r.game.Snapshot()

	var userIDs []string
	for _, p := range snap.Players {
		if p.Kind == rang.KindHuman.String() {
			userIDs = append(userIDs, p.ID)
		}
	}

	rounds := make([]map[string]any, 0, len(snap.Rounds))
	for _, rd := range snap.Rounds {
		rounds = append(rounds, map[string]any{
			"number":      rd.Number,
			"trump":       rd.Trump,
			"team_tricks": rd.TeamTricks,
			"team_scores": rd.TeamScores,
		})
	}
	summary := map[string]any{
		"room_name":     r.cfg.Name,
		"winning_score": snap.WinningScore,
		"max_rounds":    snap.MaxRounds,
		"rounds":        rounds,
	}
	if len(snap.Teams) == rang.TeamCount {
		summary["final_scores"] = []int{snap.Teams[0].Score, snap.Teams[1].Score}
	}

	go r.history.RecordGame(history.GameRecord{
		GameID:      r.ID + "_g" + time.Now().UTC().Format("20060102150405"),
		RoomCode:    r.Code,
		WinningTeam: winner,
		FinishedAt:  time.Now().UTC(),
		Summary:     summary,
		UserIDs:     userIDs,
	})
}
