package registry

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raoakhan/RangMaster/apps/server/internal/codec"
	"github.com/raoakhan/RangMaster/apps/server/internal/history"
	"github.com/raoakhan/RangMaster/apps/server/internal/room"
	"github.com/raoakhan/RangMaster/apps/server/internal/storage"
	"github.com/raoakhan/RangMaster/card"
	"github.com/raoakhan/RangMaster/rang"
	"github.com/raoakhan/RangMaster/rang/ai"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	emptyRoomTTL = 30 * time.Second
	reapInterval = 10 * time.Second
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotInRoom     = errors.New("not in a room")
	ErrAlreadyInRoom = errors.New("already in a room")
)

// Manager owns every live room and routes client messages to the right
// actor. All dependencies are injected; nothing here is global.
type Manager struct {
	mu           sync.RWMutex
	rooms        map[string]*room.Room
	roomsByCode  map[string]*room.Room
	roomByPlayer map[string]*room.Room

	publisher room.Publisher
	store     storage.Store
	history   history.Service
	profiles  *ai.Registry

	done     chan struct{}
	stopOnce sync.Once
}

func New(pub room.Publisher, store storage.Store, historySvc history.Service, profiles *ai.Registry) *Manager {
	m := &Manager{
		rooms:        make(map[string]*room.Room),
		roomsByCode:  make(map[string]*room.Room),
		roomByPlayer: make(map[string]*room.Room),
		publisher:    pub,
		store:        store,
		history:      historySvc,
		profiles:     profiles,
		done:         make(chan struct{}),
	}
	go m.reapLoop()
	return m
}

// Stop shuts down the reaper and every room actor.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.Stop()
	}
}

// Dispatch routes one decoded client frame. A returned error is sent
// back only to the originating connection.
func (m *Manager) Dispatch(playerID, playerName, connID string, env codec.Envelope) error {
	switch env.Type {
	case codec.TypeCreateRoom:
		var payload codec.CreateRoomPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return err
		}
		return m.createRoom(playerID, playerName, connID, payload)

	case codec.TypeJoinRoom:
		var payload codec.JoinRoomPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return err
		}
		return m.joinRoom(playerID, playerName, connID, payload.Code)

	case codec.TypeLeaveRoom:
		return m.leaveRoom(playerID)

	case codec.TypeStartGame:
		return m.submit(playerID, room.Event{Type: room.EventStartGame, PlayerID: playerID})

	case codec.TypeSelectTrump:
		var payload codec.SelectTrumpPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return err
		}
		suit, err := card.ParseSuit(payload.Suit)
		if err != nil {
			return err
		}
		return m.submit(playerID, room.Event{Type: room.EventSelectTrump, PlayerID: playerID, Suit: suit})

	case codec.TypePassTrump:
		return m.submit(playerID, room.Event{Type: room.EventPassTrump, PlayerID: playerID})

	case codec.TypePlayCard:
		var payload codec.PlayCardPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return err
		}
		return m.submit(playerID, room.Event{Type: room.EventPlayCard, PlayerID: playerID, Card: payload.Card})

	case codec.TypeAddAIPlayer:
		return m.submit(playerID, room.Event{Type: room.EventAddAI, PlayerID: playerID})

	case codec.TypeRemoveAIPlayer:
		var payload codec.RemoveAIPlayerPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return err
		}
		return m.submit(playerID, room.Event{Type: room.EventRemoveAI, PlayerID: playerID, TargetID: payload.PlayerID})

	case codec.TypeChatMessage:
		var payload codec.ChatSendPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return err
		}
		return m.submit(playerID, room.Event{Type: room.EventChat, PlayerID: playerID, Text: payload.Text, TeamOnly: payload.TeamOnly})

	case codec.TypePlayerReady:
		var payload codec.PlayerReadyPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return err
		}
		return m.submit(playerID, room.Event{Type: room.EventReady, PlayerID: playerID, Ready: payload.Ready})

	case codec.TypeSwitchTeam:
		return m.submit(playerID, room.Event{Type: room.EventSwitchTeam, PlayerID: playerID})

	default:
		return fmt.Errorf("unknown message type %q", env.Type)
	}
}

func (m *Manager) createRoom(playerID, playerName, connID string, payload codec.CreateRoomPayload) error {
	m.mu.Lock()
	if existing := m.roomByPlayer[playerID]; existing != nil && !existing.IsClosed() {
		m.mu.Unlock()
		return ErrAlreadyInRoom
	}

	id := uuid.NewString()
	code, err := m.newCodeLocked()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = playerName + "'s room"
	}

	r, err := room.New(id, code, room.Config{
		Name:        name,
		OwnerID:     playerID,
		EnableAudio: payload.EnableAudio,
		EnableVideo: payload.EnableVideo,
		Game: rang.Config{
			WinningScore: payload.WinningScore,
			MaxRounds:    payload.MaxRounds,
		},
	}, m.publisher, m.store, m.history, m.profiles)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.rooms[id] = r
	m.roomsByCode[code] = r
	m.roomByPlayer[playerID] = r
	m.mu.Unlock()

	m.publisher.Publish(connID, codec.MustEncode(codec.TypeRoomCreated, codec.RoomCreatedPayload{
		RoomID:      id,
		Code:        code,
		EnableAudio: payload.EnableAudio,
		EnableVideo: payload.EnableVideo,
		State:       r.Snapshot(playerID),
	}))
	return r.Submit(room.Event{Type: room.EventJoin, PlayerID: playerID, ConnID: connID, Name: playerName})
}

func (m *Manager) joinRoom(playerID, playerName, connID, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))

	m.mu.Lock()
	r := m.roomsByCode[code]
	if r == nil || r.IsClosed() {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	if existing := m.roomByPlayer[playerID]; existing != nil && existing != r && !existing.IsClosed() {
		m.mu.Unlock()
		return ErrAlreadyInRoom
	}
	m.roomByPlayer[playerID] = r
	m.mu.Unlock()

	err := r.Submit(room.Event{Type: room.EventJoin, PlayerID: playerID, ConnID: connID, Name: playerName})
	if err != nil {
		m.mu.Lock()
		if m.roomByPlayer[playerID] == r {
			delete(m.roomByPlayer, playerID)
		}
		m.mu.Unlock()
	}
	return err
}

func (m *Manager) leaveRoom(playerID string) error {
	m.mu.Lock()
	r := m.roomByPlayer[playerID]
	delete(m.roomByPlayer, playerID)
	m.mu.Unlock()

	if r == nil {
		return ErrNotInRoom
	}
	return r.Submit(room.Event{Type: room.EventLeave, PlayerID: playerID})
}

func (m *Manager) submit(playerID string, e room.Event) error {
	m.mu.RLock()
	r := m.roomByPlayer[playerID]
	m.mu.RUnlock()

	if r == nil {
		return ErrNotInRoom
	}
	return r.Submit(e)
}

// HandleDisconnect is called by the gateway when a socket closes. The
// player's seat is kept for reconnection; the room notices the dead
// connection and tears itself down if nobody comes back.
func (m *Manager) HandleDisconnect(playerID, connID string) {
	m.mu.RLock()
	r := m.roomByPlayer[playerID]
	m.mu.RUnlock()

	if r == nil || r.IsClosed() {
		return
	}
	if err := r.Submit(room.Event{Type: room.EventConnLost, PlayerID: playerID, ConnID: connID}); err != nil && err != room.ErrRoomClosed {
		log.Printf("[Registry] conn lost submit failed: %v", err)
	}
}

// HandleAuthenticated re-attaches a returning identity to its live room.
func (m *Manager) HandleAuthenticated(playerID, connID string) {
	m.mu.RLock()
	r := m.roomByPlayer[playerID]
	m.mu.RUnlock()

	if r == nil || r.IsClosed() {
		return
	}
	if err := r.Submit(room.Event{Type: room.EventConnResume, PlayerID: playerID, ConnID: connID}); err != nil && err != room.ErrRoomClosed {
		log.Printf("[Registry] conn resume submit failed: %v", err)
	}
}

// RoomOf returns the live room a player belongs to, if any.
func (m *Manager) RoomOf(playerID string) *room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roomByPlayer[playerID]
}

func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *Manager) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.reap()
		case <-m.done:
			return
		}
	}
}

// reap tears down rooms whose last human connection is long gone.
func (m *Manager) reap() {
	m.mu.Lock()
	var doomed []*room.Room
	for id, r := range m.rooms {
		if !r.IsClosed() && !r.IsIdleFor(emptyRoomTTL) {
			continue
		}
		doomed = append(doomed, r)
		delete(m.rooms, id)
		delete(m.roomsByCode, r.Code)
		for playerID, pr := range m.roomByPlayer {
			if pr == r {
				delete(m.roomByPlayer, playerID)
			}
		}
	}
	m.mu.Unlock()

	for _, r := range doomed {
		log.Printf("[Registry] Reaping idle room %s", r.ID)
		r.Teardown()
	}
}

func (m *Manager) newCodeLocked() (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if _, taken := m.roomsByCode[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique room code")
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
