package scheduler

import (
	"sync"
	"time"
)

// ManualTicker is a ticker driven by hand, for tests and tools that need
// deterministic timing.
type ManualTicker struct {
	Interval time.Duration
	C        chan time.Time
	stopped  chan struct{}
	once     sync.Once
}

// Tick delivers one tick. It returns false if the ticker was stopped before
// the tick was consumed.
func (t *ManualTicker) Tick() bool {
	select {
	case t.C <- time.Now():
		return true
	case <-t.stopped:
		return false
	}
}

// Stopped is closed once the owning task has released the ticker.
func (t *ManualTicker) Stopped() <-chan struct{} {
	return t.stopped
}

// ManualTickers is a TickerCreator that hands every created ticker to Created.
type ManualTickers struct {
	Created chan *ManualTicker
}

func NewManualTickers() *ManualTickers {
	return &ManualTickers{Created: make(chan *ManualTicker, 64)}
}

func (m *ManualTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	t := &ManualTicker{Interval: d, C: make(chan time.Time), stopped: make(chan struct{})}
	m.Created <- t
	return t.C, func() { t.once.Do(func() { close(t.stopped) }) }
}

// Next waits for the next created ticker.
func (m *ManualTickers) Next(timeout time.Duration) (*ManualTicker, bool) {
	select {
	case t := <-m.Created:
		return t, true
	case <-time.After(timeout):
		return nil, false
	}
}
