package ai

// DefaultPassProbability is the chance a brain passes trump selection
// when its best suit is short.
const DefaultPassProbability = 0.20

// Profile defines a named AI character and its tunable parameters.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tagline   string `json:"tagline"`
	AvatarKey string `json:"avatarKey"`

	// PassProbability applies when the best trump candidate has fewer
	// than four cards; 0 means never pass.
	PassProbability float64 `json:"passProbability"`
}

// DefaultRoster returns the built-in AI characters, in seating order.
func DefaultRoster() []*Profile {
	return []*Profile{
		{ID: "ai_ayesha", Name: "Ayesha (AI)", Tagline: "counts every card", AvatarKey: "ayesha", PassProbability: DefaultPassProbability},
		{ID: "ai_bilal", Name: "Bilal (AI)", Tagline: "trumps early, regrets later", AvatarKey: "bilal", PassProbability: DefaultPassProbability},
		{ID: "ai_chandni", Name: "Chandni (AI)", Tagline: "saves the ace for last", AvatarKey: "chandni", PassProbability: DefaultPassProbability},
		{ID: "ai_danish", Name: "Danish (AI)", Tagline: "never follows a plan", AvatarKey: "danish", PassProbability: DefaultPassProbability},
	}
}
