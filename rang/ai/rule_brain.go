package ai

import (
	"math/rand"

	"github.com/raoakhan/RangMaster/card"
	"github.com/raoakhan/RangMaster/rang"
)

// RuleBrain plays by fixed heuristics tuned through a Profile.
type RuleBrain struct {
	Profile *Profile
	rng     *rand.Rand
}

// NewRuleBrain creates a RuleBrain from a profile definition. The rng is
// owned by the brain so decisions are reproducible under a fixed seed.
func NewRuleBrain(profile *Profile, seed int64) *RuleBrain {
	return &RuleBrain{
		Profile: profile,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (b *RuleBrain) Name() string { return b.Profile.Name }

// SelectTrump scores each suit by count*10 + strength/10. A short best
// suit (fewer than 4 cards) passes with the profile's probability,
// modeling uncertainty. The best suit is returned either way so a caller
// that may not pass can still commit it.
func (b *RuleBrain) SelectTrump(hand card.List) (card.Suit, bool) {
	bestSuit := card.Heart
	bestScore := -1
	bestCount := 0
	for _, s := range card.Suits() {
		count := 0
		strength := 0
		for _, c := range hand {
			if c.Suit() == s {
				count++
				strength += c.PowerValue()
			}
		}
		score := count*10 + strength/10
		if score > bestScore {
			bestScore = score
			bestSuit = s
			bestCount = count
		}
	}

	if bestCount < 4 && b.rng.Float64() < b.Profile.PassProbability {
		return bestSuit, true
	}
	return bestSuit, false
}

// ChooseCard picks a legal card for the current trick position.
func (b *RuleBrain) ChooseCard(view GameView) card.Card {
	if len(view.Legal) == 0 {
		return card.CardInvalid
	}
	if len(view.Legal) == 1 {
		return view.Legal[0]
	}

	switch len(view.Trick) {
	case 0:
		return b.chooseLeadCard(view)
	case rang.SeatCount - 1:
		return b.chooseLastCard(view)
	default:
		return b.chooseMiddleCard(view)
	}
}

// chooseLeadCard prefers a high non-trump card, then a singleton suit,
// then a mid-rank card, then the lowest legal card.
func (b *RuleBrain) chooseLeadCard(view GameView) card.Card {
	nonTrump := make(card.List, 0, len(view.Legal))
	for _, c := range view.Legal {
		if c.Suit() != view.TrumpSuit {
			nonTrump = append(nonTrump, c)
		}
	}

	if high := nonTrump.Highest(); high != card.CardInvalid && high.PowerValue() >= 12 {
		return high
	}

	for _, c := range nonTrump {
		if len(view.Hand.BySuit(c.Suit())) == 1 {
			return c
		}
	}

	for _, c := range nonTrump {
		if p := c.PowerValue(); p >= 7 && p <= 11 {
			return c
		}
	}

	return view.Legal.Lowest()
}

// chooseMiddleCard sandbags when the partner holds the trick, otherwise
// wins as cheaply as possible.
func (b *RuleBrain) chooseMiddleCard(view GameView) card.Card {
	best, partnerWinning := b.currentWinner(view)
	if partnerWinning {
		return view.Legal.Lowest()
	}
	if win := b.cheapestWinning(view, best); win != card.CardInvalid {
		return win
	}
	return view.Legal.Lowest()
}

// chooseLastCard closes the trick: win cheaply, or throw the highest
// card that cannot win anyway.
func (b *RuleBrain) chooseLastCard(view GameView) card.Card {
	best, partnerWinning := b.currentWinner(view)
	if partnerWinning {
		return view.Legal.Lowest()
	}
	if win := b.cheapestWinning(view, best); win != card.CardInvalid {
		return win
	}
	return view.Legal.Highest()
}

// currentWinner resolves the in-progress trick and reports whether the
// brain's partner is holding it.
func (b *RuleBrain) currentWinner(view GameView) (rang.Play, bool) {
	trick := rang.Trick{Plays: view.Trick}
	best, ok := rang.TrickWinner(&trick, view.TrumpSuit)
	if !ok {
		return rang.Play{}, false
	}
	return best, best.Seat == rang.PartnerSeat(view.Seat)
}

// cheapestWinning returns the lowest legal card that beats the current
// best play, preferring lead-suit wins over spending trump.
func (b *RuleBrain) cheapestWinning(view GameView, best rang.Play) card.Card {
	winner := card.CardInvalid
	winnerIsTrump := false
	for _, c := range view.Legal {
		if rang.Compare(c, best.Card, view.LeadSuit, view.TrumpSuit) <= 0 {
			continue
		}
		isTrump := view.TrumpSuit != card.SuitNone && c.Suit() == view.TrumpSuit
		if winner == card.CardInvalid {
			winner = c
			winnerIsTrump = isTrump
			continue
		}
		// Lead-suit wins beat trump wins; within a class take the cheaper.
		if winnerIsTrump && !isTrump {
			winner = c
			winnerIsTrump = false
			continue
		}
		if winnerIsTrump == isTrump && c.PowerValue() < winner.PowerValue() {
			winner = c
		}
	}
	return winner
}
