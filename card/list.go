package card

import "math/rand"

type List []Card

func (ds *List) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds List) Count() int {
	return len(ds)
}

func (ds List) Bytes() []byte {
	out := make([]byte, 0, len(ds))
	for _, c := range ds {
		out = append(out, byte(c))
	}
	return out
}

func (ds List) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *List) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

func (ds List) Contains(c Card) bool {
	for _, x := range ds {
		if x == c {
			return true
		}
	}
	return false
}

// Remove deletes the first occurrence of c, reporting whether it was found.
func (ds *List) Remove(c Card) bool {
	for i, x := range *ds {
		if x == c {
			*ds = append((*ds)[:i], (*ds)[i+1:]...)
			return true
		}
	}
	return false
}

// BySuit returns the cards of the given suit, in hand order.
func (ds List) BySuit(s Suit) List {
	var out List
	for _, c := range ds {
		if c.Suit() == s {
			out = append(out, c)
		}
	}
	return out
}

// Highest returns the card with the greatest power value, CardInvalid when empty.
func (ds List) Highest() Card {
	best := CardInvalid
	for _, c := range ds {
		if best == CardInvalid || c.PowerValue() > best.PowerValue() {
			best = c
		}
	}
	return best
}

// Lowest returns the card with the smallest power value, CardInvalid when empty.
func (ds List) Lowest() Card {
	best := CardInvalid
	for _, c := range ds {
		if best == CardInvalid || c.PowerValue() < best.PowerValue() {
			best = c
		}
	}
	return best
}

func (ds *List) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	copy(cards, (*ds)[:size])
	*ds = (*ds)[size:]
	return cards, true
}

func (ds List) Clone() List {
	out := make(List, len(ds))
	copy(out, ds)
	return out
}

// Deck returns the full 52-card set in encoding order.
func Deck() List {
	deck := make(List, 0, 52)
	for _, s := range Suits() {
		for r := byte(1); r <= 13; r++ {
			deck = append(deck, New(s, r))
		}
	}
	return deck
}
