package ai

import (
	"github.com/raoakhan/RangMaster/card"
	"github.com/raoakhan/RangMaster/rang"
)

// GameView is a read-only projection of the game state visible to the AI.
type GameView struct {
	Phase     rang.Phase
	Seat      int
	Hand      card.List
	Legal     card.List
	Trick     []rang.Play
	TrumpSuit card.Suit
	LeadSuit  card.Suit
}

// BrainDecider is the interface every AI player type implements.
type BrainDecider interface {
	// SelectTrump is called when the AI holds trump selection. pass=true
	// hands the choice to the partner instead of committing a suit.
	SelectTrump(hand card.List) (suit card.Suit, pass bool)
	// ChooseCard is called when it's the AI's turn; Legal is never empty.
	ChooseCard(view GameView) card.Card
	// Name returns a human-readable identifier for debugging.
	Name() string
}
