package room

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/raoakhan/RangMaster/apps/server/internal/codec"
	"github.com/raoakhan/RangMaster/apps/server/internal/history"
	"github.com/raoakhan/RangMaster/apps/server/internal/storage"
	"github.com/raoakhan/RangMaster/card"
	"github.com/raoakhan/RangMaster/rang"
	"github.com/raoakhan/RangMaster/rang/ai"
)

// Publisher delivers an encoded frame to one connection. The gateway
// implements it; tests substitute a recorder.
type Publisher interface {
	Publish(connID string, data []byte)
}

// Config contains room settings
type Config struct {
	Name        string
	OwnerID     string
	EnableAudio bool
	EnableVideo bool
	Game        rang.Config
}

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"

	chatBacklogLimit  = 100
	auditBacklogLimit = 100
	nextRoundDelay    = 3 * time.Second

	aiThinkFloor  = time.Second
	aiThinkJitter = 500 * time.Millisecond
)

var (
	ErrRoomClosed = errors.New("room closed")
	ErrNotOwner   = errors.New("only the room owner can do that")
)

// AuditEntry is one line of the room's game log.
type AuditEntry struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// Room is a single game room with an actor model. All state changes go
// through the events channel; the run goroutine is the only writer.
type Room struct {
	ID   string
	Code string

	cfg Config

	mu       sync.RWMutex
	game     *rang.Game
	conns    map[string]map[string]struct{} // playerID -> connID set
	brains   map[string]*ai.RuleBrain       // AI playerID -> brain
	chat     []codec.ChatMessagePayload
	audit    []AuditEntry
	closed   bool
	stopOnce sync.Once

	// turnSeq is bumped on every state mutation; deferred AI decisions
	// carry the value they were scheduled under.
	turnSeq     uint64
	nextRoundAt time.Time
	emptySince  time.Time

	events chan Event
	done   chan struct{}

	rng *rand.Rand

	publisher Publisher
	store     storage.Store
	history   history.Service
	profiles  *ai.Registry
}

// New creates a room, persists its record and starts the actor.
func New(
	id, code string,
	cfg Config,
	pub Publisher,
	store storage.Store,
	historySvc history.Service,
	profiles *ai.Registry,
) (*Room, error) {
	game, err := rang.NewGame(cfg.Game)
	if err != nil {
		return nil, err
	}
	r := &Room{
		ID:         id,
		Code:       code,
		cfg:        cfg,
		game:       game,
		conns:      make(map[string]map[string]struct{}),
		brains:     make(map[string]*ai.RuleBrain),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		emptySince: time.Now(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		publisher:  pub,
		store:      store,
		history:    historySvc,
		profiles:   profiles,
	}
	r.persistCreateRoom()

	go r.run()

	log.Printf("[Room %s] Created (code=%s, winningScore=%d, maxRounds=%d)",
		id, code, cfg.Game.WinningScore, cfg.Game.MaxRounds)
	return r, nil
}

func (r *Room) Name() string { return r.cfg.Name }

// run is the main actor loop
func (r *Room) run() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event := <-r.events:
			err := r.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			r.tick()
		case <-r.done:
			log.Printf("[Room %s] Actor stopped", r.ID)
			return
		}
	}
}

func (r *Room) handleEvent(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed && e.Type != EventClose {
		return ErrRoomClosed
	}

	switch e.Type {
	case EventJoin:
		return r.handleJoin(e.PlayerID, e.ConnID, e.Name)
	case EventLeave:
		return r.handleLeave(e.PlayerID)
	case EventStartGame:
		return r.handleStartGame(e.PlayerID)
	case EventSelectTrump:
		return r.handleSelectTrump(e.PlayerID, e.Suit)
	case EventPassTrump:
		return r.handlePassTrump(e.PlayerID)
	case EventPlayCard:
		return r.handlePlayCard(e.PlayerID, e.Card)
	case EventAddAI:
		return r.handleAddAI(e.PlayerID)
	case EventRemoveAI:
		return r.handleRemoveAI(e.PlayerID, e.TargetID)
	case EventChat:
		return r.handleChat(e.PlayerID, e.Text, e.TeamOnly)
	case EventReady:
		return r.handleReady(e.PlayerID, e.Ready)
	case EventSwitchTeam:
		return r.handleSwitchTeam(e.PlayerID)
	case EventConnLost:
		return r.handleConnLost(e.PlayerID, e.ConnID)
	case EventConnResume:
		return r.handleConnResume(e.PlayerID, e.ConnID)
	case EventAIAction:
		return r.handleAIAction(e.PlayerID, e.Token)
	case EventClose:
		r.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (r *Room) handleJoin(playerID, connID, name string) error {
	if p := r.game.Player(playerID); p != nil {
		// Rejoin by identity: seat, hand and score were preserved.
		r.registerConnLocked(playerID, connID)
		_ = r.game.MarkConnected(playerID, true)
		r.persistPlayerConnected(playerID, true)
		log.Printf("[Room %s] Player %s rejoined", r.ID, playerID)
		r.sendRoomJoined(playerID, connID)
		r.sendChatBacklog(connID)
		r.broadcastRoomState()
		return nil
	}

	p, err := r.game.AddPlayer(playerID, name, rang.KindHuman)
	if err != nil {
		return err
	}
	r.registerConnLocked(playerID, connID)
	r.persistCreatePlayer(p)
	r.auditLocked("%s joined at seat %d", p.Name, p.Seat)
	log.Printf("[Room %s] Player %s joined at seat %d", r.ID, playerID, p.Seat)

	r.sendRoomJoined(playerID, connID)
	r.broadcastFiltered(codec.TypePlayerJoined, func(state rang.Snapshot) any {
		return codec.PlayerJoinedPayload{
			RoomID:   r.ID,
			PlayerID: p.ID,
			Name:     p.Name,
			Seat:     p.Seat,
			State:    state,
		}
	})
	return nil
}

func (r *Room) handleLeave(playerID string) error {
	p := r.game.Player(playerID)
	if p == nil {
		return rang.ErrPlayerNotFound
	}
	r.dropConnsLocked(playerID)

	if r.game.Phase() == rang.PhaseWaiting {
		if err := r.game.RemovePlayer(playerID); err != nil {
			return err
		}
		r.persistPlayerConnected(playerID, false)
		r.auditLocked("%s left", p.Name)
		log.Printf("[Room %s] Player %s left the lobby", r.ID, playerID)
		r.broadcastFiltered(codec.TypePlayerLeft, func(state rang.Snapshot) any {
			return codec.PlayerLeftPayload{RoomID: r.ID, PlayerID: playerID, State: state}
		})
		return nil
	}

	// Mid-game the seat stays reserved for reconnection.
	_ = r.game.MarkConnected(playerID, false)
	r.persistPlayerConnected(playerID, false)
	log.Printf("[Room %s] Player %s disconnected mid-game", r.ID, playerID)
	r.broadcastRoomState()
	return nil
}

func (r *Room) handleStartGame(playerID string) error {
	if playerID != r.cfg.OwnerID {
		return ErrNotOwner
	}

	// Fill the remaining seats with AI opponents.
	for len(r.game.Snapshot().Players) < rang.SeatCount {
		if _, err := r.addAIPlayerLocked(); err != nil {
			return err
		}
	}

	if err := r.game.Start(); err != nil {
		return err
	}
	r.turnSeq++
	r.persistRoomStatus(StatusInProgress)
	r.saveGameState()
	r.auditLocked("game started")
	log.Printf("[Room %s] Game started, round 1", r.ID)

	r.broadcastFiltered(codec.TypeGameStarted, func(state rang.Snapshot) any {
		return codec.GameStartedPayload{RoomID: r.ID, State: state}
	})
	r.announceTrumpSelector()
	r.scheduleAILocked()
	return nil
}

func (r *Room) handleSelectTrump(playerID string, suit card.Suit) error {
	if err := r.game.SelectTrump(playerID, suit); err != nil {
		return err
	}
	r.turnSeq++
	r.auditLocked("%s selected trump %s", r.playerName(playerID), suit.Name())
	log.Printf("[Room %s] Player %s selected trump %s", r.ID, playerID, suit.Name())

	r.broadcastFiltered(codec.TypeTrumpSelected, func(state rang.Snapshot) any {
		return codec.TrumpSelectedPayload{
			RoomID:   r.ID,
			PlayerID: playerID,
			Suit:     suit.Name(),
			State:    state,
		}
	})
	r.scheduleAILocked()
	return nil
}

func (r *Room) handlePassTrump(playerID string) error {
	if err := r.game.PassTrump(playerID); err != nil {
		return err
	}
	r.turnSeq++
	r.auditLocked("%s passed trump selection to partner", r.playerName(playerID))
	log.Printf("[Room %s] Player %s passed trump selection to partner", r.ID, playerID)

	r.announceTrumpSelector()
	r.broadcastRoomState()
	r.scheduleAILocked()
	return nil
}

func (r *Room) handlePlayCard(playerID string, c card.Card) error {
	return r.applyPlay(playerID, c)
}

// applyPlay is shared between human submissions and AI decisions.
func (r *Room) applyPlay(playerID string, c card.Card) error {
	res, err := r.game.PlayCard(playerID, c)
	if err != nil {
		return err
	}
	r.turnSeq++
	r.auditLocked("%s played %s", r.playerName(playerID), c)

	r.broadcastFiltered(codec.TypeCardPlayed, func(state rang.Snapshot) any {
		return codec.CardPlayedPayload{
			RoomID:   r.ID,
			PlayerID: playerID,
			Seat:     res.Play.Seat,
			Card:     c,
			State:    state,
		}
	})

	if res.TrickComplete {
		winnerID := res.TrickWinner.PlayerID
		r.auditLocked("trick won by %s (team %d)", r.playerName(winnerID), res.WinningTeam)
		log.Printf("[Room %s] Trick won by %s (seat %d, team %d)",
			r.ID, winnerID, res.TrickWinner.Seat, res.WinningTeam)
		r.broadcastFiltered(codec.TypeTrickCompleted, func(state rang.Snapshot) any {
			return codec.TrickCompletedPayload{
				RoomID:      r.ID,
				WinnerID:    winnerID,
				WinnerSeat:  res.TrickWinner.Seat,
				WinningTeam: int(res.WinningTeam),
				State:       state,
			}
		})
	}

	if res.RoundComplete {
		round := roundToSnapshot(*res.Round)
		r.auditLocked("round %d complete, scores %d-%d",
			res.Round.Number, res.Round.TeamScores[0], res.Round.TeamScores[1])
		log.Printf("[Room %s] Round %d complete: tricks=%v scores=%v",
			r.ID, res.Round.Number, res.Round.TeamTricks, res.Round.TeamScores)
		r.broadcastFiltered(codec.TypeRoundCompleted, func(state rang.Snapshot) any {
			return codec.RoundCompletedPayload{RoomID: r.ID, Round: round, State: state}
		})

		if res.GameOver {
			r.finishGame(res.Winner)
			return nil
		}
		r.nextRoundAt = time.Now().Add(nextRoundDelay)
		r.saveGameState()
		return nil
	}

	r.scheduleAILocked()
	return nil
}

func (r *Room) finishGame(winner int) {
	if winner < 0 {
		r.auditLocked("game over, tied")
	} else {
		r.auditLocked("game over, team %d wins", winner)
	}
	log.Printf("[Room %s] Game over, winning team %d", r.ID, winner)
	r.nextRoundAt = time.Time{}

	r.broadcastFiltered(codec.TypeGameCompleted, func(state rang.Snapshot) any {
		return codec.GameCompletedPayload{RoomID: r.ID, Winner: winner, State: state}
	})
	r.recordHistory(winner)
	r.persistRoomStatus(StatusFinished)
	r.deleteGameState()
}

func (r *Room) handleAddAI(requesterID string) error {
	if requesterID != r.cfg.OwnerID {
		return ErrNotOwner
	}
	p, err := r.addAIPlayerLocked()
	if err != nil {
		return err
	}
	r.broadcastFiltered(codec.TypePlayerJoined, func(state rang.Snapshot) any {
		return codec.PlayerJoinedPayload{
			RoomID:   r.ID,
			PlayerID: p.ID,
			Name:     p.Name,
			Seat:     p.Seat,
			State:    state,
		}
	})
	return nil
}

func (r *Room) handleRemoveAI(requesterID, targetID string) error {
	if requesterID != r.cfg.OwnerID {
		return ErrNotOwner
	}
	if _, ok := r.brains[targetID]; !ok {
		return rang.ErrPlayerNotFound
	}
	if err := r.game.RemovePlayer(targetID); err != nil {
		return err
	}
	delete(r.brains, targetID)
	log.Printf("[Room %s] AI player %s removed", r.ID, targetID)

	r.broadcastFiltered(codec.TypePlayerLeft, func(state rang.Snapshot) any {
		return codec.PlayerLeftPayload{RoomID: r.ID, PlayerID: targetID, State: state}
	})
	return nil
}

func (r *Room) handleChat(playerID, text string, teamOnly bool) error {
	p := r.game.Player(playerID)
	if p == nil {
		return rang.ErrPlayerNotFound
	}
	if text == "" {
		return nil
	}

	msg := codec.ChatMessagePayload{
		RoomID:   r.ID,
		PlayerID: playerID,
		Name:     p.Name,
		Text:     text,
		TeamOnly: teamOnly,
		SentAtMs: time.Now().UnixMilli(),
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > chatBacklogLimit {
		r.chat = r.chat[len(r.chat)-chatBacklogLimit:]
	}

	data := codec.MustEncode(codec.TypeChatMessage, msg)
	senderTeam := p.Team
	r.publishRaw(data, func(recipientID string) bool {
		if !teamOnly {
			return true
		}
		rp := r.game.Player(recipientID)
		return rp != nil && rp.Team == senderTeam
	})
	return nil
}

func (r *Room) handleReady(playerID string, ready bool) error {
	if err := r.game.SetReady(playerID, ready); err != nil {
		return err
	}
	r.broadcastRoomState()
	return nil
}

func (r *Room) handleSwitchTeam(playerID string) error {
	if err := r.game.SwitchTeam(playerID); err != nil {
		return err
	}
	r.broadcastRoomState()
	return nil
}

func (r *Room) handleConnLost(playerID, connID string) error {
	conns := r.conns[playerID]
	if conns == nil {
		return nil
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.conns, playerID)
		_ = r.game.MarkConnected(playerID, false)
		r.persistPlayerConnected(playerID, false)
		log.Printf("[Room %s] Player %s connection lost", r.ID, playerID)
		r.broadcastRoomState()
	}
	r.updateEmptySinceLocked()
	return nil
}

func (r *Room) handleConnResume(playerID, connID string) error {
	p := r.game.Player(playerID)
	if p == nil {
		return rang.ErrPlayerNotFound
	}
	r.registerConnLocked(playerID, connID)
	_ = r.game.MarkConnected(playerID, true)
	r.persistPlayerConnected(playerID, true)
	log.Printf("[Room %s] Player %s connection resumed", r.ID, playerID)

	r.sendRoomJoined(playerID, connID)
	r.sendChatBacklog(connID)
	r.broadcastRoomState()
	return nil
}

func (r *Room) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	now := time.Now()
	if !r.nextRoundAt.IsZero() && !now.Before(r.nextRoundAt) {
		r.nextRoundAt = time.Time{}
		r.advanceRoundLocked()
	}
}

func (r *Room) advanceRoundLocked() {
	if err := r.game.StartNextRound(); err != nil {
		log.Printf("[Room %s] next round start failed: %v", r.ID, err)
		return
	}
	r.turnSeq++
	r.saveGameState()
	log.Printf("[Room %s] Round %d started", r.ID, r.game.Round())

	r.broadcastFiltered(codec.TypeGameStarted, func(state rang.Snapshot) any {
		return codec.GameStartedPayload{RoomID: r.ID, State: state}
	})
	r.announceTrumpSelector()
	r.scheduleAILocked()
}

func (r *Room) announceTrumpSelector() {
	selector := r.game.CurrentActor()
	if selector == nil || r.game.Phase() != rang.PhaseSelectingTrump {
		return
	}
	payload := codec.TrumpSelectionRequestPayload{
		RoomID:   r.ID,
		PlayerID: selector.ID,
		Seat:     selector.Seat,
	}
	data := codec.MustEncode(codec.TypeTrumpSelectionRequest, payload)
	r.publishRaw(data, nil)
}

func (r *Room) registerConnLocked(playerID, connID string) {
	set := r.conns[playerID]
	if set == nil {
		set = make(map[string]struct{})
		r.conns[playerID] = set
	}
	set[connID] = struct{}{}
	r.updateEmptySinceLocked()
}

func (r *Room) dropConnsLocked(playerID string) {
	delete(r.conns, playerID)
	r.updateEmptySinceLocked()
}

func (r *Room) updateEmptySinceLocked() {
	for _, set := range r.conns {
		if len(set) > 0 {
			r.emptySince = time.Time{}
			return
		}
	}
	if r.emptySince.IsZero() {
		r.emptySince = time.Now()
	}
}

// Submit sends an event to the actor and waits for the result.
func (r *Room) Submit(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRoomClosed
	}

	select {
	case r.events <- e:
	case <-r.done:
		return ErrRoomClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Stop shuts down the actor without touching persisted state.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Teardown stops the actor and removes everything the room persisted.
// Called when the last human connection is gone for good.
func (r *Room) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.stopLocked()
	r.deleteGameState()
	r.deleteRoomRecord()
	log.Printf("[Room %s] Torn down", r.ID)
}

func (r *Room) stopLocked() {
	r.closed = true
	r.nextRoundAt = time.Time{}
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

// IsIdleFor reports whether no human connection has been seen for ttl.
func (r *Room) IsIdleFor(ttl time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return true
	}
	if r.emptySince.IsZero() {
		return false
	}
	return time.Since(r.emptySince) >= ttl
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Snapshot returns the game state as seen by viewerID.
func (r *Room) Snapshot(viewerID string) rang.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.game.SnapshotFor(viewerID)
}

// ChatBacklog returns a copy of the retained chat messages.
func (r *Room) ChatBacklog() []codec.ChatMessagePayload {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]codec.ChatMessagePayload(nil), r.chat...)
}

// AuditLog returns a copy of the retained game log entries.
func (r *Room) AuditLog() []AuditEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]AuditEntry(nil), r.audit...)
}

func (r *Room) auditLocked(format string, args ...any) {
	r.audit = append(r.audit, AuditEntry{
		At:   time.Now(),
		Text: fmt.Sprintf(format, args...),
	})
	if len(r.audit) > auditBacklogLimit {
		r.audit = r.audit[len(r.audit)-auditBacklogLimit:]
	}
}

func (r *Room) playerName(playerID string) string {
	if p := r.game.Player(playerID); p != nil {
		return p.Name
	}
	return playerID
}

func roundToSnapshot(rec rang.RoundRecord) rang.RoundSnapshot {
	return rang.RoundSnapshot{
		Number:     rec.Number,
		Trump:      rec.Trump.Name(),
		TeamTricks: rec.TeamTricks,
		TeamScores: rec.TeamScores,
	}
}
