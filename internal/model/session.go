package model

import (
	"slices"
	"time"
)

type SessionStatus string

const (
	SessionWaiting   SessionStatus = "waiting"
	SessionCountdown SessionStatus = "countdown"
	SessionOngoing   SessionStatus = "ongoing"
	SessionCompleted SessionStatus = "completed"
)

// Session is one bingo round shared by every player at a stake. The id is
// reused when the round is recycled back to waiting.
type Session struct {
	ID               string          `json:"id" bson:"_id"`
	Status           SessionStatus   `json:"status" bson:"status"`
	BidAmount        int             `json:"bidAmount" bson:"bidAmount"`
	Players          []SessionPlayer `json:"players" bson:"players"`
	Cards            []Card          `json:"cards" bson:"cards"`
	ShuffledNumbers  []CalledNumber  `json:"shuffledNumbers" bson:"shuffledNumbers"`
	CalledNumbers    []CalledNumber  `json:"calledNumbers" bson:"calledNumbers"`
	Winner           string          `json:"winner" bson:"winner"`
	WinnerCard       int             `json:"winnerCard" bson:"winnerCard"`
	StartTime        *time.Time      `json:"startTime" bson:"startTime"`
	EndTime          *time.Time      `json:"endTime" bson:"endTime"`
	CountdownStarted bool            `json:"countdownStarted" bson:"countdownStarted"`
	CreatedAt        time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Card returns the card with the given number, or nil.
func (s *Session) Card(number int) *Card {
	for i := range s.Cards {
		if s.Cards[i].Number == number {
			return &s.Cards[i]
		}
	}
	return nil
}

// Player returns the player entry for userID, or nil.
func (s *Session) Player(userID string) *SessionPlayer {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return &s.Players[i]
		}
	}
	return nil
}

// AllReady reports whether the session has players and all of them are ready.
func (s *Session) AllReady() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if p.Status != PlayerReady {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can hand snapshots out without
// sharing slices with the store.
func (s *Session) Clone() *Session {
	c := *s
	c.Players = slices.Clone(s.Players)
	c.Cards = make([]Card, len(s.Cards))
	for i, card := range s.Cards {
		c.Cards[i] = card.Clone()
	}
	// slices.Clone keeps empty lists non-nil so they encode as []
	c.ShuffledNumbers = slices.Clone(s.ShuffledNumbers)
	c.CalledNumbers = slices.Clone(s.CalledNumbers)
	if s.StartTime != nil {
		t := *s.StartTime
		c.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}
