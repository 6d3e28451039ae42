package card

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func TestDeckHas52UniqueCards(t *testing.T) {
	deck := Deck()
	if deck.Count() != 52 {
		t.Fatalf("expected 52 cards, got %d", deck.Count())
	}
	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		if !c.Valid() {
			t.Fatalf("invalid card in deck: 0x%02x", byte(c))
		}
		if seen[c] {
			t.Fatalf("duplicate card in deck: %s", c)
		}
		seen[c] = true
	}
}

func TestPowerValueOrdering(t *testing.T) {
	if CardSpadeA.PowerValue() != 14 {
		t.Fatalf("ace power = %d, want 14", CardSpadeA.PowerValue())
	}
	if CardSpadeK.PowerValue() != 13 {
		t.Fatalf("king power = %d, want 13", CardSpadeK.PowerValue())
	}
	if CardSpade2.PowerValue() != 2 {
		t.Fatalf("deuce power = %d, want 2", CardSpade2.PowerValue())
	}
	if CardSpadeA.PowerValue() <= CardSpadeK.PowerValue() {
		t.Fatal("ace must outrank king")
	}
}

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		suit, value string
		want        Card
	}{
		{"hearts", "A", CardHeartA},
		{"spades", "10", CardSpadeT},
		{"clubs", "Q", CardClubQ},
		{"diamonds", "7", CardDiamond7},
	}
	for _, tc := range cases {
		got, err := Parse(tc.suit, tc.value)
		if err != nil {
			t.Fatalf("Parse(%s,%s) err: %v", tc.suit, tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%s,%s) = %s, want %s", tc.suit, tc.value, got, tc.want)
		}
		if got.Suit().Name() != tc.suit || got.ValueName() != tc.value {
			t.Fatalf("round trip mismatch for %s: %s %s", got, got.Suit().Name(), got.ValueName())
		}
	}

	if _, err := Parse("stars", "A"); err == nil {
		t.Fatal("expected error for unknown suit")
	}
	if _, err := Parse("hearts", "1"); err == nil {
		t.Fatal("expected error for unknown value")
	}
}

func TestParseTrimsValueWhitespace(t *testing.T) {
	got, err := Parse("hearts", " 3")
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if got != CardHeart3 {
		t.Fatalf("Parse(hearts, \" 3\") = %s, want %s", got, CardHeart3)
	}
	if !got.Valid() {
		t.Fatal("parsed card must be a deck card")
	}

	if got, err := Parse("spades", " q "); err != nil || got != CardSpadeQ {
		t.Fatalf("Parse(spades, \" q \") = %s, %v", got, err)
	}
}

func TestCardJSON(t *testing.T) {
	raw, err := json.Marshal(CardHeartA)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if string(raw) != `{"suit":"hearts","value":"A"}` {
		t.Fatalf("unexpected JSON: %s", raw)
	}

	var c Card
	if err := json.Unmarshal([]byte(`{"suit":"spades","value":"10"}`), &c); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if c != CardSpadeT {
		t.Fatalf("unmarshal = %s, want %s", c, CardSpadeT)
	}

	if _, err := json.Marshal(CardInvalid); err == nil {
		t.Fatal("expected error marshaling invalid card")
	}
}

func TestListRemoveAndContains(t *testing.T) {
	hand := List{CardHeartA, CardSpade5, CardHeartA}
	if !hand.Contains(CardHeartA) {
		t.Fatal("expected hand to contain heart ace")
	}
	if !hand.Remove(CardHeartA) {
		t.Fatal("remove failed")
	}
	if hand.Count() != 2 {
		t.Fatalf("expected 2 cards after remove, got %d", hand.Count())
	}
	if !hand.Contains(CardHeartA) {
		t.Fatal("only the first occurrence should be removed")
	}
	if hand.Remove(CardClub3) {
		t.Fatal("removing an absent card should report false")
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := Deck()
	deck.Shuffle(rand.New(rand.NewSource(7)))
	if deck.Count() != 52 {
		t.Fatalf("shuffle changed size: %d", deck.Count())
	}
	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Fatalf("shuffle lost cards: %d unique", len(seen))
	}
}
