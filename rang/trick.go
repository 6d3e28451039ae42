package rang

import "github.com/raoakhan/RangMaster/card"

// Play is one card placed into a trick, recorded at the moment of play.
type Play struct {
	Seat     int
	PlayerID string
	Card     card.Card
}

// Trick 一墩牌：按出牌顺序记录的 (seat, card) 列表，最多 4 张
type Trick struct {
	Plays []Play
}

func (t *Trick) Size() int {
	return len(t.Plays)
}

func (t *Trick) Empty() bool {
	return len(t.Plays) == 0
}

// LeadSuit returns the suit of the first card, SuitNone for an empty trick.
func (t *Trick) LeadSuit() card.Suit {
	if len(t.Plays) == 0 {
		return card.SuitNone
	}
	return t.Plays[0].Card.Suit()
}

func (t *Trick) add(p Play) {
	t.Plays = append(t.Plays, p)
}

func (t *Trick) reset() {
	t.Plays = nil
}

func (t *Trick) clone() Trick {
	out := Trick{Plays: make([]Play, len(t.Plays))}
	copy(out.Plays, t.Plays)
	return out
}
