package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps everything in process memory. Default backend; state
// is lost on restart, which matches the no-durability posture of rooms.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]User   // by id
	usersByName map[string]string // username -> id
	rooms       map[string]RoomRecord
	roomsByCode map[string]string // code -> id
	players     map[string][]PlayerRecord
	gameStates  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]User),
		usersByName: make(map[string]string),
		rooms:       make(map[string]RoomRecord),
		roomsByCode: make(map[string]string),
		players:     make(map[string][]PlayerRecord),
		gameStates:  make(map[string][]byte),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicate
	}
	if u.Username != "" {
		if _, ok := s.usersByName[u.Username]; ok {
			return ErrDuplicate
		}
		s.usersByName[u.Username] = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByName[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) CreateRoom(_ context.Context, r RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.roomsByCode[r.Code]; ok {
		return ErrDuplicate
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.rooms[r.ID] = r
	s.roomsByCode[r.Code] = r.ID
	return nil
}

func (s *MemoryStore) GetRoom(_ context.Context, id string) (RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return RoomRecord{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) GetRoomByCode(_ context.Context, code string) (RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roomsByCode[code]
	if !ok {
		return RoomRecord{}, ErrNotFound
	}
	return s.rooms[id], nil
}

func (s *MemoryStore) UpdateRoom(_ context.Context, r RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.rooms[r.ID]
	if !ok {
		return ErrNotFound
	}
	if old.Code != r.Code {
		delete(s.roomsByCode, old.Code)
		s.roomsByCode[r.Code] = r.ID
	}
	s.rooms[r.ID] = r
	return nil
}

func (s *MemoryStore) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.roomsByCode, r.Code)
	delete(s.rooms, id)
	delete(s.players, id)
	return nil
}

func (s *MemoryStore) CreatePlayer(_ context.Context, p PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players[p.RoomID] {
		if existing.ID == p.ID {
			return ErrDuplicate
		}
	}
	s.players[p.RoomID] = append(s.players[p.RoomID], p)
	return nil
}

func (s *MemoryStore) GetPlayersByRoom(_ context.Context, roomID string) ([]PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PlayerRecord, len(s.players[roomID]))
	copy(out, s.players[roomID])
	return out, nil
}

func (s *MemoryStore) UpdatePlayer(_ context.Context, p PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.players[p.RoomID]
	for i, existing := range list {
		if existing.ID == p.ID {
			list[i] = p
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SaveGameState(_ context.Context, roomID string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameStates[roomID] = append([]byte(nil), state...)
	return nil
}

func (s *MemoryStore) GetGameState(_ context.Context, roomID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.gameStates[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), state...), nil
}

func (s *MemoryStore) UpdateGameState(_ context.Context, roomID string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gameStates[roomID]; !ok {
		return ErrNotFound
	}
	s.gameStates[roomID] = append([]byte(nil), state...)
	return nil
}

func (s *MemoryStore) DeleteGameState(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.gameStates, roomID)
	return nil
}
