package rang

import "github.com/raoakhan/RangMaster/card"

type Player struct {
	ID        string
	Name      string
	Kind      PlayerKind
	Seat      int
	Team      TeamID
	Connected bool
	Ready     bool
	Hand      card.List
}

func (p *Player) IsAI() bool {
	return p.Kind == KindAI
}

// HasSuit reports whether the hand holds at least one card of the suit.
func (p *Player) HasSuit(s card.Suit) bool {
	for _, c := range p.Hand {
		if c.Suit() == s {
			return true
		}
	}
	return false
}

func (p *Player) resetForNewRound() {
	p.Hand = nil
}
