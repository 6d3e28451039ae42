package room

import (
	"time"

	"github.com/raoakhan/RangMaster/card"
)

// Event types for the actor message queue
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventStartGame
	EventSelectTrump
	EventPassTrump
	EventPlayCard
	EventAddAI
	EventRemoveAI
	EventChat
	EventReady
	EventSwitchTeam
	EventConnLost
	EventConnResume
	EventAIAction
	EventClose
)

// Event represents a message to the room actor
type Event struct {
	Type     EventType
	PlayerID string
	ConnID   string
	Name     string

	Suit     card.Suit
	Card     card.Card
	TargetID string
	Text     string
	TeamOnly bool
	Ready    bool

	// Token pins a deferred AI decision to the turn it was scheduled
	// for. A mismatch at execution time means the state moved on.
	Token uint64

	Timestamp time.Time
	Response  chan error
}
