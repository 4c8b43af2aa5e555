package scheduler

import "time"

// TickerCreator makes periodic tick channels. The returned func stops the ticker.
type TickerCreator interface {
	Create(d time.Duration) (<-chan time.Time, func())
}

type realTickers struct{}

// NewTickerCreator returns a TickerCreator backed by time.Ticker.
func NewTickerCreator() TickerCreator {
	return realTickers{}
}

func (realTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
