package rang

import "fmt"

const (
	DefaultWinningScore = 101
	DefaultMaxRounds    = 5
)

type Config struct {
	// Scoring
	WinningScore int
	MaxRounds    int

	// RNG seed (0 => time-based)
	Seed int64
}

func (c *Config) applyDefaults() {
	if c.WinningScore == 0 {
		c.WinningScore = DefaultWinningScore
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = DefaultMaxRounds
	}
}

func (c Config) validate() error {
	if c.WinningScore <= 0 {
		return fmt.Errorf("WinningScore must be > 0")
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("MaxRounds must be >= 1")
	}
	return nil
}
