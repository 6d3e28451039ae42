package ai

import (
	"testing"

	"github.com/raoakhan/RangMaster/card"
	"github.com/raoakhan/RangMaster/rang"
)

func testBrain(t *testing.T, pass float64) *RuleBrain {
	t.Helper()
	return NewRuleBrain(&Profile{ID: "t", Name: "test", PassProbability: pass}, 1)
}

func TestSelectTrumpPicksLongStrongSuit(t *testing.T) {
	b := testBrain(t, 0)
	hand := card.List{
		card.CardHeartA, card.CardHeartK, card.CardHeartQ, card.CardHeart9, card.CardHeart3,
		card.CardSpade2, card.CardClub4, card.CardDiamond8,
	}
	suit, pass := b.SelectTrump(hand)
	if pass {
		t.Fatal("five-card suit must never pass")
	}
	if suit != card.Heart {
		t.Fatalf("trump = %v, want hearts", suit)
	}
}

func TestSelectTrumpNeverPassesWithZeroProbability(t *testing.T) {
	b := testBrain(t, 0)
	short := card.List{card.CardHeartA, card.CardSpade2, card.CardClub4, card.CardDiamond8}
	for i := 0; i < 50; i++ {
		if _, pass := b.SelectTrump(short); pass {
			t.Fatal("pass probability 0 must never pass")
		}
	}
}

func TestSelectTrumpAlwaysPassesWhenShortAndCertain(t *testing.T) {
	b := testBrain(t, 1.0)
	short := card.List{card.CardHeartA, card.CardSpade2, card.CardClub4, card.CardDiamond8}
	suit, pass := b.SelectTrump(short)
	if !pass {
		t.Fatalf("probability 1 with a short suit must pass, chose %v", suit)
	}
	// The selection must stay usable when the caller is not allowed to
	// pass it on, e.g. after the partner already passed.
	if suit == card.SuitNone {
		t.Fatal("passing decision must still carry the best suit")
	}
	if suit != card.Heart {
		t.Fatalf("best suit = %v, want hearts", suit)
	}

	long := card.List{
		card.CardHeartA, card.CardHeartK, card.CardHeartQ, card.CardHeartJ,
		card.CardSpade2, card.CardClub4,
	}
	if _, pass := b.SelectTrump(long); pass {
		t.Fatal("a four-card suit must commit even at probability 1")
	}
}

func TestChooseLeadPrefersHighNonTrump(t *testing.T) {
	b := testBrain(t, 0)
	hand := card.List{card.CardHeartA, card.CardHeart3, card.CardSpadeK, card.CardClub6}
	view := GameView{
		Seat:      0,
		Hand:      hand,
		Legal:     hand.Clone(),
		TrumpSuit: card.Spade,
	}
	got := b.ChooseCard(view)
	if got != card.CardHeartA {
		t.Fatalf("lead = %s, want heart ace (high non-trump)", got)
	}
}

func TestChooseMiddleSandbagsForPartner(t *testing.T) {
	b := testBrain(t, 0)
	hand := card.List{card.CardClubA, card.CardClub2, card.CardClub9}
	view := GameView{
		Seat:  2,
		Hand:  hand,
		Legal: hand.Clone(),
		Trick: []rang.Play{
			{Seat: 0, PlayerID: "p0", Card: card.CardClubK}, // partner of seat 2
			{Seat: 1, PlayerID: "p1", Card: card.CardClub5},
		},
		TrumpSuit: card.Spade,
		LeadSuit:  card.Club,
	}
	got := b.ChooseCard(view)
	if got != card.CardClub2 {
		t.Fatalf("play = %s, want lowest club while partner wins", got)
	}
}

func TestChooseMiddleWinsCheaply(t *testing.T) {
	b := testBrain(t, 0)
	hand := card.List{card.CardClubA, card.CardClub9, card.CardClub2}
	view := GameView{
		Seat:  2,
		Hand:  hand,
		Legal: hand.Clone(),
		Trick: []rang.Play{
			{Seat: 1, PlayerID: "p1", Card: card.CardClub7}, // opponent leads and wins
		},
		TrumpSuit: card.Spade,
		LeadSuit:  card.Club,
	}
	got := b.ChooseCard(view)
	if got != card.CardClub9 {
		t.Fatalf("play = %s, want cheapest winning club (9)", got)
	}
}

func TestChooseMiddlePrefersLeadSuitWinOverTrump(t *testing.T) {
	b := testBrain(t, 0)
	hand := card.List{card.CardSpade2, card.CardClub9}
	view := GameView{
		Seat:  2,
		Hand:  hand,
		Legal: hand.Clone(),
		Trick: []rang.Play{
			{Seat: 1, PlayerID: "p1", Card: card.CardClub7},
		},
		TrumpSuit: card.Spade,
		LeadSuit:  card.Club,
	}
	got := b.ChooseCard(view)
	if got != card.CardClub9 {
		t.Fatalf("play = %s, want club win instead of spending trump", got)
	}
}

func TestChooseLastDiscardsHighestLoser(t *testing.T) {
	b := testBrain(t, 0)
	hand := card.List{card.CardDiamondK, card.CardDiamond3}
	view := GameView{
		Seat:  3,
		Hand:  hand,
		Legal: hand.Clone(),
		Trick: []rang.Play{
			{Seat: 0, PlayerID: "p0", Card: card.CardClubK},
			{Seat: 1, PlayerID: "p1", Card: card.CardClub5}, // partner of seat 3, losing
			{Seat: 2, PlayerID: "p2", Card: card.CardClub6},
		},
		TrumpSuit: card.Spade,
		LeadSuit:  card.Club,
	}
	got := b.ChooseCard(view)
	if got != card.CardDiamondK {
		t.Fatalf("play = %s, want highest loser when the trick is unwinnable", got)
	}
}

func TestChooseCardDeterministicUnderSeed(t *testing.T) {
	hand := card.List{card.CardHeartA, card.CardHeart3, card.CardSpadeK, card.CardClub6}
	view := GameView{Seat: 0, Hand: hand, Legal: hand.Clone(), TrumpSuit: card.Spade}

	first := NewRuleBrain(&Profile{ID: "a", Name: "a"}, 42).ChooseCard(view)
	for i := 0; i < 5; i++ {
		again := NewRuleBrain(&Profile{ID: "a", Name: "a"}, 42).ChooseCard(view)
		if again != first {
			t.Fatalf("decision changed across identical seeds: %s vs %s", first, again)
		}
	}
}

func TestRegistryDefaultsAndLoad(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 4 {
		t.Fatalf("default roster size = %d, want 4", r.Count())
	}

	used := map[string]bool{"ai_ayesha": true}
	next := r.NextFree(used)
	if next == nil || next.ID != "ai_bilal" {
		t.Fatalf("NextFree = %+v, want ai_bilal", next)
	}

	if err := r.LoadFromJSON([]byte(`[{"id":"ai_extra","name":"Extra (AI)"}]`)); err != nil {
		t.Fatalf("LoadFromJSON err: %v", err)
	}
	p := r.Get("ai_extra")
	if p == nil {
		t.Fatal("loaded profile missing")
	}
	if p.PassProbability != DefaultPassProbability {
		t.Fatalf("loaded profile pass probability = %v, want default", p.PassProbability)
	}
	if err := r.LoadFromJSON([]byte(`{bad`)); err == nil {
		t.Fatal("expected parse error")
	}
}
