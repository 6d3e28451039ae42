package codec

import (
	"encoding/json"
	"fmt"

	"github.com/raoakhan/RangMaster/card"
	"github.com/raoakhan/RangMaster/rang"
)

// Client -> server message types.
const (
	TypeAuthenticate   = "authenticate"
	TypeCreateRoom     = "create_room"
	TypeJoinRoom       = "join_room"
	TypeLeaveRoom      = "leave_room"
	TypeStartGame      = "start_game"
	TypeSelectTrump    = "select_trump"
	TypePassTrump      = "pass_trump"
	TypePlayCard       = "play_card"
	TypeAddAIPlayer    = "add_ai_player"
	TypeRemoveAIPlayer = "remove_ai_player"
	TypeChatMessage    = "chat_message"
	TypePlayerReady    = "player_ready"
	TypeSwitchTeam     = "switch_team"
	TypeHeartbeat      = "heartbeat"
)

// Server -> client message types.
const (
	TypeAuthenticated         = "authenticated"
	TypeRoomCreated           = "room_created"
	TypeRoomJoined            = "room_joined"
	TypeRoomState             = "room_state"
	TypeGameStarted           = "game_started"
	TypeTrumpSelectionRequest = "trump_selection_request"
	TypeTrumpSelected         = "trump_selected"
	TypeCardPlayed            = "card_played"
	TypeTrickCompleted        = "trick_completed"
	TypeRoundCompleted        = "round_completed"
	TypeGameCompleted         = "game_completed"
	TypePlayerJoined          = "player_joined"
	TypePlayerLeft            = "player_left"
	TypeError                 = "error"
)

// Envelope is the wire frame: a newline-free JSON object {type, payload}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals a typed payload into a wire frame.
func Encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// MustEncode is Encode for payloads built by the server itself, where a
// marshal failure is a programming error.
func MustEncode(msgType string, payload any) []byte {
	data, err := Encode(msgType, payload)
	if err != nil {
		panic(err)
	}
	return data
}

// Decode parses a wire frame without touching the payload.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// ErrorMessage builds the scoped error reply sent only to the
// originating connection.
func ErrorMessage(message string) []byte {
	return MustEncode(TypeError, ErrorPayload{Message: message})
}

// Client -> server payloads.

type AuthenticatePayload struct {
	Token     string `json:"token,omitempty"`
	GuestName string `json:"guestName,omitempty"`
}

type CreateRoomPayload struct {
	Name         string `json:"name,omitempty"`
	WinningScore int    `json:"winningScore,omitempty"`
	MaxRounds    int    `json:"maxRounds,omitempty"`
	EnableAudio  bool   `json:"enableAudio,omitempty"`
	EnableVideo  bool   `json:"enableVideo,omitempty"`
}

type JoinRoomPayload struct {
	Code string `json:"code"`
}

type SelectTrumpPayload struct {
	Suit string `json:"suit"`
}

type PlayCardPayload struct {
	Card card.Card `json:"card"`
}

type RemoveAIPlayerPayload struct {
	PlayerID string `json:"playerId"`
}

type ChatSendPayload struct {
	Text     string `json:"text"`
	TeamOnly bool   `json:"teamOnly,omitempty"`
}

type PlayerReadyPayload struct {
	Ready bool `json:"ready"`
}

// Server -> client payloads.

type AuthenticatedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Guest    bool   `json:"guest"`
}

type RoomCreatedPayload struct {
	RoomID      string        `json:"roomId"`
	Code        string        `json:"code"`
	EnableAudio bool          `json:"enableAudio"`
	EnableVideo bool          `json:"enableVideo"`
	State       rang.Snapshot `json:"state"`
}

type RoomJoinedPayload struct {
	RoomID      string        `json:"roomId"`
	Code        string        `json:"code"`
	PlayerID    string        `json:"playerId"`
	EnableAudio bool          `json:"enableAudio"`
	EnableVideo bool          `json:"enableVideo"`
	State       rang.Snapshot `json:"state"`
}

type RoomStatePayload struct {
	RoomID      string        `json:"roomId"`
	EnableAudio bool          `json:"enableAudio"`
	EnableVideo bool          `json:"enableVideo"`
	State       rang.Snapshot `json:"state"`
}

type GameStartedPayload struct {
	RoomID string        `json:"roomId"`
	State  rang.Snapshot `json:"state"`
}

type TrumpSelectionRequestPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
}

type TrumpSelectedPayload struct {
	RoomID   string        `json:"roomId"`
	PlayerID string        `json:"playerId"`
	Suit     string        `json:"suit"`
	State    rang.Snapshot `json:"state"`
}

type CardPlayedPayload struct {
	RoomID   string        `json:"roomId"`
	PlayerID string        `json:"playerId"`
	Seat     int           `json:"seat"`
	Card     card.Card     `json:"card"`
	State    rang.Snapshot `json:"state"`
}

type TrickCompletedPayload struct {
	RoomID      string        `json:"roomId"`
	WinnerID    string        `json:"winnerId"`
	WinnerSeat  int           `json:"winnerSeat"`
	WinningTeam int           `json:"winningTeam"`
	State       rang.Snapshot `json:"state"`
}

type RoundCompletedPayload struct {
	RoomID string             `json:"roomId"`
	Round  rang.RoundSnapshot `json:"round"`
	State  rang.Snapshot      `json:"state"`
}

type GameCompletedPayload struct {
	RoomID string        `json:"roomId"`
	Winner int           `json:"winner"` // -1 means tie
	State  rang.Snapshot `json:"state"`
}

type PlayerJoinedPayload struct {
	RoomID   string        `json:"roomId"`
	PlayerID string        `json:"playerId"`
	Name     string        `json:"name"`
	Seat     int           `json:"seat"`
	State    rang.Snapshot `json:"state"`
}

type PlayerLeftPayload struct {
	RoomID   string        `json:"roomId"`
	PlayerID string        `json:"playerId"`
	State    rang.Snapshot `json:"state"`
}

type ChatMessagePayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	TeamOnly bool   `json:"teamOnly,omitempty"`
	SentAtMs int64  `json:"sentAtMs"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
