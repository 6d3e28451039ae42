package card

import (
	"encoding/json"
	"fmt"
)

// wireCard is the JSON form clients see: {"suit":"hearts","value":"A"}.
type wireCard struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid card 0x%02x", byte(c))
	}
	return json.Marshal(wireCard{Suit: c.Suit().Name(), Value: c.ValueName()})
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := Parse(w.Suit, w.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
