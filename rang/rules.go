package rang

import "github.com/raoakhan/RangMaster/card"

// Compare orders two cards under trump and lead-suit precedence.
// Returns >0 when a outranks b, <0 when b outranks a, 0 when neither
// card can displace the other (both off-suit and off-trump).
func Compare(a, b card.Card, leadSuit, trumpSuit card.Suit) int {
	aTrump := trumpSuit != card.SuitNone && a.Suit() == trumpSuit
	bTrump := trumpSuit != card.SuitNone && b.Suit() == trumpSuit
	if aTrump != bTrump {
		if aTrump {
			return 1
		}
		return -1
	}

	if a.Suit() == b.Suit() {
		return a.PowerValue() - b.PowerValue()
	}

	// Neither is trump and the suits differ: only the lead suit counts.
	if a.Suit() == leadSuit {
		return 1
	}
	if b.Suit() == leadSuit {
		return -1
	}
	return 0
}

// CanPlay 跟牌合法性：有引牌花色必须跟，否则任意（无强制将吃）
func CanPlay(hand card.List, c card.Card, trick *Trick, trumpSuit card.Suit) bool {
	if !hand.Contains(c) {
		return false
	}
	if trick == nil || trick.Empty() {
		return true
	}
	lead := trick.LeadSuit()
	if c.Suit() == lead {
		return true
	}
	for _, held := range hand {
		if held.Suit() == lead {
			return false
		}
	}
	return true
}

// PlayableCards returns the legal subset of the hand for the current trick.
func PlayableCards(hand card.List, trick *Trick, trumpSuit card.Suit) card.List {
	if trick == nil || trick.Empty() {
		return hand.Clone()
	}
	lead := hand.BySuit(trick.LeadSuit())
	if len(lead) > 0 {
		return lead
	}
	return hand.Clone()
}

// TrickWinner folds the trick's plays through Compare, keeping the
// earlier entry on ties. The first play is always the initial best, so
// a card that is neither trump nor lead suit can never become the
// candidate winner later.
func TrickWinner(trick *Trick, trumpSuit card.Suit) (Play, bool) {
	if trick == nil || trick.Empty() {
		return Play{}, false
	}
	lead := trick.LeadSuit()
	best := trick.Plays[0]
	for _, p := range trick.Plays[1:] {
		if Compare(p.Card, best.Card, lead, trumpSuit) > 0 {
			best = p
		}
	}
	return best, true
}
