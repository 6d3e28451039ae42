package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

func New(s Suit, rank byte) Card {
	if rank < 1 || rank > 13 {
		return CardInvalid
	}
	return Card(byte(s)<<4 | rank)
}

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	return fmt.Sprintf("%s-%s", c.Suit().Name(), c.ValueName())
}

// Rank 获取牌面值 1-13 (A=1, K=13)
func (c Card) Rank() byte {
	if c == CardInvalid {
		return 0
	}
	return byte(c & 0x0F)
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

// PowerValue 返回用于比较大小的点数:
// - A 视为 14
// - 其它为原始点数
func (c Card) PowerValue() int {
	r := int(c & 0x0F)
	if r == 1 {
		return 14
	}
	return r
}

// Valid reports whether c encodes one of the 52 deck cards.
func (c Card) Valid() bool {
	r := c & 0x0F
	return c>>4 <= 3 && r >= 1 && r <= 13
}

// ValueName returns the wire name of the rank: "A", "2".."10", "J", "Q", "K".
func (c Card) ValueName() string {
	switch r := c.Rank(); r {
	case 1:
		return "A"
	case 10:
		return "10"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	case 0:
		return "?"
	default:
		return fmt.Sprintf("%d", r)
	}
}

// Parse converts a wire pair (如 "hearts"/"A", "spades"/"10") 为 Card
func Parse(suitName, valueName string) (Card, error) {
	s, err := ParseSuit(suitName)
	if err != nil {
		return CardInvalid, err
	}

	var rank byte
	value := strings.ToUpper(strings.TrimSpace(valueName))
	switch value {
	case "A":
		rank = 1
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = value[0] - '0'
	case "T", "10":
		rank = 10
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		return CardInvalid, fmt.Errorf("invalid card value: %q", valueName)
	}

	return New(s, rank), nil
}
