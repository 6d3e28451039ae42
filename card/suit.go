package card

import "fmt"

type Suit byte

const (
	Spade Suit = iota // ♠️
	Heart             // ♥️
	Club              // ♣️
	Diamond           // ♦️

	SuitNone Suit = 0xFF
)

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦️"
	case Club:
		return "♣️"
	case Heart:
		return "♥️"
	case Spade:
		return "♠️"
	}
	return "?"
}

// Name returns the wire name of the suit.
func (s Suit) Name() string {
	switch s {
	case Spade:
		return "spades"
	case Heart:
		return "hearts"
	case Club:
		return "clubs"
	case Diamond:
		return "diamonds"
	}
	return ""
}

func ParseSuit(name string) (Suit, error) {
	switch name {
	case "spades":
		return Spade, nil
	case "hearts":
		return Heart, nil
	case "clubs":
		return Club, nil
	case "diamonds":
		return Diamond, nil
	}
	return SuitNone, fmt.Errorf("invalid suit: %q", name)
}

// Suits lists the four suits in encoding order.
func Suits() []Suit {
	return []Suit{Spade, Heart, Club, Diamond}
}
