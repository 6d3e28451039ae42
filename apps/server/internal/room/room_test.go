package room

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raoakhan/RangMaster/apps/server/internal/codec"
	"github.com/raoakhan/RangMaster/apps/server/internal/history"
	"github.com/raoakhan/RangMaster/apps/server/internal/storage"
	"github.com/raoakhan/RangMaster/rang"
	"github.com/raoakhan/RangMaster/rang/ai"
)

type fakePublisher struct {
	mu     sync.Mutex
	frames map[string][]codec.Envelope
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{frames: make(map[string][]codec.Envelope)}
}

func (f *fakePublisher) Publish(connID string, data []byte) {
	env, err := codec.Decode(data)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.frames[connID] = append(f.frames[connID], env)
	f.mu.Unlock()
}

func (f *fakePublisher) framesFor(connID string) []codec.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]codec.Envelope(nil), f.frames[connID]...)
}

func (f *fakePublisher) countOfType(connID, msgType string) int {
	n := 0
	for _, env := range f.framesFor(connID) {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

func (f *fakePublisher) lastOfType(connID, msgType string) (codec.Envelope, bool) {
	frames := f.framesFor(connID)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type == msgType {
			return frames[i], true
		}
	}
	return codec.Envelope{}, false
}

func newTestRoom(t *testing.T, owner string) (*Room, *fakePublisher, storage.Store) {
	t.Helper()
	pub := newFakePublisher()
	store := storage.NewMemoryStore()
	historySvc, _, err := history.NewServiceFromEnv("memory")
	if err != nil {
		t.Fatalf("history service err: %v", err)
	}
	r, err := New("r1", "ABC123", Config{
		Name:    "test room",
		OwnerID: owner,
		Game:    rang.Config{Seed: 42},
	}, pub, store, historySvc, ai.NewRegistry())
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	t.Cleanup(r.Stop)
	return r, pub, store
}

func join(t *testing.T, r *Room, playerID, connID string) {
	t.Helper()
	if err := r.Submit(Event{Type: EventJoin, PlayerID: playerID, ConnID: connID, Name: playerID}); err != nil {
		t.Fatalf("join %s err: %v", playerID, err)
	}
}

func TestStartFillsSeatsWithAI(t *testing.T) {
	r, _, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")

	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h1"}); err != nil {
		t.Fatalf("start err: %v", err)
	}

	snap := r.Snapshot("")
	if snap.Phase != "selecting_trump" {
		t.Fatalf("phase = %s", snap.Phase)
	}
	if len(snap.Players) != 4 {
		t.Fatalf("players = %d, want 4", len(snap.Players))
	}
	aiCount := 0
	for _, p := range snap.Players {
		if p.Kind == "ai" {
			aiCount++
		}
	}
	if aiCount != 3 {
		t.Fatalf("ai players = %d, want 3", aiCount)
	}
}

func TestStartRequiresOwner(t *testing.T) {
	r, _, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	join(t, r, "h2", "c2")

	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h2"}); err != ErrNotOwner {
		t.Fatalf("non-owner start: err = %v, want ErrNotOwner", err)
	}
}

func TestBroadcastHidesOtherHands(t *testing.T) {
	r, pub, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	join(t, r, "h2", "c2")

	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h1"}); err != nil {
		t.Fatalf("start err: %v", err)
	}

	env, ok := pub.lastOfType("c1", codec.TypeGameStarted)
	if !ok {
		t.Fatal("no game_started frame for c1")
	}
	var payload codec.GameStartedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	for _, p := range payload.State.Players {
		if p.ID == "h1" {
			if len(p.Hand) != rang.CardsPerHand {
				t.Fatalf("viewer hand = %d cards", len(p.Hand))
			}
			continue
		}
		if len(p.Hand) != 0 {
			t.Fatalf("player %s hand leaked to h1", p.ID)
		}
		if p.CardCount != rang.CardsPerHand {
			t.Fatalf("player %s cardCount = %d", p.ID, p.CardCount)
		}
	}
}

func TestStaleAIActionDropped(t *testing.T) {
	r, _, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h1"}); err != nil {
		t.Fatalf("start err: %v", err)
	}

	before := r.Snapshot("")
	if err := r.Submit(Event{Type: EventAIAction, PlayerID: "h1", Token: 999}); err != nil {
		t.Fatalf("stale action must be dropped, err = %v", err)
	}
	after := r.Snapshot("")
	if after.Phase != before.Phase || after.TrumpSelector != before.TrumpSelector {
		t.Fatal("stale AI action must not change state")
	}
}

func TestAISelectsTrumpAfterPass(t *testing.T) {
	r, _, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h1"}); err != nil {
		t.Fatalf("start err: %v", err)
	}

	// Round 1 selector is seat 0 (the human). Passing hands the choice
	// to the AI partner on seat 2, which must commit a suit.
	if err := r.Submit(Event{Type: EventPassTrump, PlayerID: "h1"}); err != nil {
		t.Fatalf("pass err: %v", err)
	}

	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		if r.Snapshot("").Phase == "in_progress" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("AI never selected trump, phase = %s", r.Snapshot("").Phase)
}

func TestTeamOnlyChat(t *testing.T) {
	r, pub, _ := newTestRoom(t, "h1")
	for i, id := range []string{"h1", "h2", "h3", "h4"} {
		join(t, r, id, "c"+string(rune('1'+i)))
	}

	// h1 sits seat 0 and h3 seat 2, both team 0.
	if err := r.Submit(Event{Type: EventChat, PlayerID: "h1", Text: "rang ho!", TeamOnly: true}); err != nil {
		t.Fatalf("chat err: %v", err)
	}

	if pub.countOfType("c1", codec.TypeChatMessage) != 1 {
		t.Fatal("sender must receive team chat")
	}
	if pub.countOfType("c3", codec.TypeChatMessage) != 1 {
		t.Fatal("partner must receive team chat")
	}
	if pub.countOfType("c2", codec.TypeChatMessage) != 0 || pub.countOfType("c4", codec.TypeChatMessage) != 0 {
		t.Fatal("opponents must not receive team chat")
	}
}

func TestRejoinReceivesChatBacklog(t *testing.T) {
	r, pub, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	join(t, r, "h2", "c2")

	if err := r.Submit(Event{Type: EventChat, PlayerID: "h1", Text: "hello"}); err != nil {
		t.Fatalf("chat err: %v", err)
	}

	// Same identity, fresh connection.
	join(t, r, "h2", "c2b")
	if pub.countOfType("c2b", codec.TypeChatMessage) != 1 {
		t.Fatal("rejoining connection must receive the chat backlog")
	}
	if _, ok := pub.lastOfType("c2b", codec.TypeRoomJoined); !ok {
		t.Fatal("rejoining connection must receive room_joined")
	}
}

func TestTeardownDeletesPersistedState(t *testing.T) {
	r, _, store := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h1"}); err != nil {
		t.Fatalf("start err: %v", err)
	}

	ctx := context.Background()
	if _, err := store.GetGameState(ctx, "r1"); err != nil {
		t.Fatalf("game state must exist after start: %v", err)
	}

	r.Teardown()

	if _, err := store.GetGameState(ctx, "r1"); err != storage.ErrNotFound {
		t.Fatalf("game state must be deleted, err = %v", err)
	}
	if _, err := store.GetRoom(ctx, "r1"); err != storage.ErrNotFound {
		t.Fatalf("room record must be deleted, err = %v", err)
	}
	if err := r.Submit(Event{Type: EventChat, PlayerID: "h1", Text: "x"}); err != ErrRoomClosed {
		t.Fatalf("submit after teardown: err = %v", err)
	}
}

func TestMediaFlagsPersistedAndEchoed(t *testing.T) {
	pub := newFakePublisher()
	store := storage.NewMemoryStore()
	historySvc, _, err := history.NewServiceFromEnv("memory")
	if err != nil {
		t.Fatalf("history service err: %v", err)
	}
	r, err := New("r1", "ABC123", Config{
		Name:        "voice room",
		OwnerID:     "h1",
		EnableAudio: true,
		Game:        rang.Config{Seed: 42},
	}, pub, store, historySvc, ai.NewRegistry())
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	t.Cleanup(r.Stop)

	rec, err := store.GetRoom(context.Background(), "r1")
	if err != nil {
		t.Fatalf("room record err: %v", err)
	}
	if !rec.EnableAudio || rec.EnableVideo {
		t.Fatalf("record flags audio=%v video=%v, want audio only", rec.EnableAudio, rec.EnableVideo)
	}

	join(t, r, "h1", "c1")
	env, ok := pub.lastOfType("c1", codec.TypeRoomJoined)
	if !ok {
		t.Fatal("no room_joined frame")
	}
	var joined codec.RoomJoinedPayload
	if err := json.Unmarshal(env.Payload, &joined); err != nil {
		t.Fatalf("decode room_joined: %v", err)
	}
	if !joined.EnableAudio || joined.EnableVideo {
		t.Fatalf("room_joined flags audio=%v video=%v, want audio only", joined.EnableAudio, joined.EnableVideo)
	}
}

func TestAuditLogRecordsGameFlow(t *testing.T) {
	r, _, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h1"}); err != nil {
		t.Fatalf("start err: %v", err)
	}
	if err := r.Submit(Event{Type: EventPassTrump, PlayerID: "h1"}); err != nil {
		t.Fatalf("pass err: %v", err)
	}

	var joined, started, passed bool
	for _, e := range r.AuditLog() {
		switch {
		case strings.Contains(e.Text, "joined at seat"):
			joined = true
		case e.Text == "game started":
			started = true
		case strings.Contains(e.Text, "passed trump"):
			passed = true
		}
	}
	if !joined || !started || !passed {
		t.Fatalf("audit log missing entries: joined=%v started=%v passed=%v", joined, started, passed)
	}
}

func TestMidGameDisconnectKeepsSeat(t *testing.T) {
	r, _, _ := newTestRoom(t, "h1")
	join(t, r, "h1", "c1")
	if err := r.Submit(Event{Type: EventStartGame, PlayerID: "h1"}); err != nil {
		t.Fatalf("start err: %v", err)
	}

	if err := r.Submit(Event{Type: EventConnLost, PlayerID: "h1", ConnID: "c1"}); err != nil {
		t.Fatalf("conn lost err: %v", err)
	}
	snap := r.Snapshot("")
	found := false
	for _, p := range snap.Players {
		if p.ID == "h1" {
			found = true
			if p.Connected {
				t.Fatal("player must be marked disconnected")
			}
		}
	}
	if !found {
		t.Fatal("seat must be preserved mid-game")
	}
	if !r.IsIdleFor(0) {
		t.Fatal("room with no human connections must report idle")
	}

	if err := r.Submit(Event{Type: EventConnResume, PlayerID: "h1", ConnID: "c1b"}); err != nil {
		t.Fatalf("resume err: %v", err)
	}
	if r.IsIdleFor(0) {
		t.Fatal("room must not be idle after resume")
	}
}
