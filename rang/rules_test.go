package rang

import (
	"testing"

	"github.com/raoakhan/RangMaster/card"
)

func TestCompareTrumpPrecedence(t *testing.T) {
	// Spades trump, hearts lead: the lowest trump beats the highest lead card.
	if Compare(card.CardSpade2, card.CardHeartA, card.Heart, card.Spade) <= 0 {
		t.Fatal("low trump must beat non-trump ace")
	}
	if Compare(card.CardHeartA, card.CardSpade2, card.Heart, card.Spade) >= 0 {
		t.Fatal("non-trump ace must lose to low trump")
	}
}

func TestCompareSameSuit(t *testing.T) {
	if Compare(card.CardHeartA, card.CardHeartK, card.Heart, card.Spade) <= 0 {
		t.Fatal("ace must outrank king within a suit")
	}
	if Compare(card.CardSpade9, card.CardSpadeJ, card.Heart, card.Spade) >= 0 {
		t.Fatal("lower trump must lose to higher trump")
	}
}

func TestCompareLeadSuitOverOffSuit(t *testing.T) {
	// Clubs lead, spades trump: a club outranks a diamond of any value.
	if Compare(card.CardClub2, card.CardDiamondA, card.Club, card.Spade) <= 0 {
		t.Fatal("lead-suit card must outrank off-suit card")
	}
	// Neither lead nor trump on both sides: no change.
	if got := Compare(card.CardDiamond5, card.CardHeart9, card.Club, card.Spade); got != 0 {
		t.Fatalf("off-suit vs off-suit = %d, want 0", got)
	}
}

func trickOf(plays ...Play) *Trick {
	tr := &Trick{}
	for _, p := range plays {
		tr.add(p)
	}
	return tr
}

func TestTrickWinnerTrumpBeatsLead(t *testing.T) {
	tr := trickOf(
		Play{Seat: 0, PlayerID: "a", Card: card.CardHeartA},
		Play{Seat: 1, PlayerID: "b", Card: card.CardHeart5},
		Play{Seat: 2, PlayerID: "c", Card: card.CardSpade3},
		Play{Seat: 3, PlayerID: "d", Card: card.CardHeartK},
	)
	win, ok := TrickWinner(tr, card.Spade)
	if !ok {
		t.Fatal("expected a winner")
	}
	if win.Seat != 2 {
		t.Fatalf("winner seat = %d, want 2 (low trump over hearts)", win.Seat)
	}
}

func TestTrickWinnerIsPure(t *testing.T) {
	tr := trickOf(
		Play{Seat: 0, PlayerID: "a", Card: card.CardClub9},
		Play{Seat: 1, PlayerID: "b", Card: card.CardClubQ},
		Play{Seat: 2, PlayerID: "c", Card: card.CardDiamondA},
		Play{Seat: 3, PlayerID: "d", Card: card.CardClubJ},
	)
	first, _ := TrickWinner(tr, card.Heart)
	for i := 0; i < 5; i++ {
		again, _ := TrickWinner(tr, card.Heart)
		if again != first {
			t.Fatalf("run %d: winner changed from %+v to %+v", i, first, again)
		}
	}
	if first.Seat != 1 {
		t.Fatalf("winner seat = %d, want 1 (highest club, diamond never a candidate)", first.Seat)
	}
}

func TestTrickWinnerEmptyTrick(t *testing.T) {
	if _, ok := TrickWinner(&Trick{}, card.Spade); ok {
		t.Fatal("empty trick must have no winner")
	}
}

func TestCanPlayFollowSuit(t *testing.T) {
	hand := card.List{card.CardHeart4, card.CardClubA, card.CardClub7}
	tr := trickOf(Play{Seat: 0, PlayerID: "a", Card: card.CardClubK})

	if CanPlay(hand, card.CardHeart4, tr, card.Spade) {
		t.Fatal("holding clubs, a heart must be illegal on a club lead")
	}
	if !CanPlay(hand, card.CardClub7, tr, card.Spade) {
		t.Fatal("following the lead suit must be legal")
	}
	if CanPlay(hand, card.CardDiamond2, tr, card.Spade) {
		t.Fatal("a card outside the hand is never legal")
	}
}

func TestCanPlayVoidInLeadSuit(t *testing.T) {
	hand := card.List{card.CardHeart4, card.CardSpade9}
	tr := trickOf(Play{Seat: 0, PlayerID: "a", Card: card.CardClubK})

	// No obligation to trump: any card goes when void in the lead suit.
	if !CanPlay(hand, card.CardHeart4, tr, card.Spade) {
		t.Fatal("off-suit discard must be legal when void")
	}
	if !CanPlay(hand, card.CardSpade9, tr, card.Spade) {
		t.Fatal("trumping must be legal when void")
	}
}

func TestCanPlayEmptyTrick(t *testing.T) {
	hand := card.List{card.CardHeart4, card.CardClubA}
	if !CanPlay(hand, card.CardHeart4, &Trick{}, card.Spade) {
		t.Fatal("any held card is legal on an empty trick")
	}
}

func TestPlayableCards(t *testing.T) {
	hand := card.List{card.CardHeart4, card.CardClubA, card.CardClub7}
	tr := trickOf(Play{Seat: 0, PlayerID: "a", Card: card.CardClubK})

	legal := PlayableCards(hand, tr, card.Spade)
	if len(legal) != 2 {
		t.Fatalf("legal count = %d, want 2 clubs", len(legal))
	}
	for _, c := range legal {
		if c.Suit() != card.Club {
			t.Fatalf("unexpected legal card %s", c)
		}
	}

	void := card.List{card.CardHeart4, card.CardSpade9}
	legal = PlayableCards(void, tr, card.Spade)
	if len(legal) != 2 {
		t.Fatalf("void hand: legal count = %d, want full hand", len(legal))
	}
}
