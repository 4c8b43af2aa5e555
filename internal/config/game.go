package config

import (
	"slices"
	"time"
)

// GameConfig holds the round timing and stake settings
type GameConfig struct {
	// Stakes are the bid amounts players may join at
	Stakes []int `json:"stakes"`

	// CountdownStart is the first value broadcast by the countdown
	CountdownStart int `json:"countdownStart"`

	// CountdownInterval is the pause between countdown updates
	CountdownInterval time.Duration `json:"countdownInterval"`

	// CallInterval is the pause between two called numbers
	CallInterval time.Duration `json:"callInterval"`

	// RecycleDelay is how long a completed round shows its result before
	// the session goes back to waiting
	RecycleDelay time.Duration `json:"recycleDelay"`

	// OpTimeout bounds every store operation issued from a timer
	OpTimeout time.Duration `json:"opTimeout"`

	// CardsFile optionally replaces the generated card catalog
	CardsFile string `json:"cardsFile"`
}

// DefaultGameConfig returns the game configuration from the environment
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Stakes:            getIntList("STAKES", []int{10, 20, 50, 100}),
		CountdownStart:    getInt("COUNTDOWN_START", 45),
		CountdownInterval: getDuration("COUNTDOWN_INTERVAL", time.Second),
		CallInterval:      getDuration("CALL_INTERVAL", 5*time.Second),
		RecycleDelay:      getDuration("RECYCLE_DELAY", 10*time.Second),
		OpTimeout:         getDuration("OP_TIMEOUT", 5*time.Second),
		CardsFile:         getEnv("CARDS_FILE", ""),
	}
}

// AllowsStake returns true if players may join at bid
func (c *GameConfig) AllowsStake(bid int) bool {
	return slices.Contains(c.Stakes, bid)
}
