package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wait = time.Second

func nextTicker(t *testing.T, m *ManualTickers) *ManualTicker {
	t.Helper()
	tk, ok := m.Next(wait)
	require.True(t, ok, "expected a ticker to be created")
	return tk
}

func stopped(tk *ManualTicker) bool {
	select {
	case <-tk.Stopped():
		return true
	case <-time.After(wait):
		return false
	}
}

func TestStartRunsTicks(t *testing.T) {
	tickers := NewManualTickers()
	r := NewRegistry(tickers)

	seen := make(chan int, 8)
	r.Start("room", KindCountdown, time.Second, func(ctx context.Context, tick int) bool {
		seen <- tick
		return tick < 2
	})

	tk := nextTicker(t, tickers)
	assert.Equal(t, time.Second, tk.Interval)
	assert.Equal(t, KindCountdown, r.Active("room"))

	for i := 0; i < 3; i++ {
		require.True(t, tk.Tick())
		assert.Equal(t, i, <-seen)
	}

	require.True(t, stopped(tk))
	assert.Eventually(t, func() bool { return r.Active("room") == KindNone }, wait, 5*time.Millisecond)
}

func TestStartReplacesPreviousTask(t *testing.T) {
	tickers := NewManualTickers()
	r := NewRegistry(tickers)

	var oldRuns atomic.Int32
	r.Start("room", KindCountdown, time.Second, func(ctx context.Context, tick int) bool {
		oldRuns.Add(1)
		return true
	})
	first := nextTicker(t, tickers)

	r.Start("room", KindCalls, 5*time.Second, func(ctx context.Context, tick int) bool { return true })
	second := nextTicker(t, tickers)

	require.True(t, stopped(first), "old ticker must be released")
	assert.False(t, first.Tick())
	assert.Equal(t, int32(0), oldRuns.Load())
	assert.Equal(t, KindCalls, r.Active("room"))
	assert.Equal(t, 1, r.Len())

	require.True(t, second.Tick())
	r.Cancel("room")
	require.True(t, stopped(second))
}

func TestTaskCanReplaceItself(t *testing.T) {
	tickers := NewManualTickers()
	r := NewRegistry(tickers)

	calls := make(chan int, 4)
	r.Start("room", KindCountdown, time.Second, func(ctx context.Context, tick int) bool {
		r.Start("room", KindCalls, 5*time.Second, func(ctx context.Context, tick int) bool {
			calls <- tick
			return true
		})
		return false
	})

	countdown := nextTicker(t, tickers)
	require.True(t, countdown.Tick())
	callTicker := nextTicker(t, tickers)
	require.True(t, stopped(countdown))

	assert.Equal(t, KindCalls, r.Active("room"), "finishing countdown must not remove its replacement")
	require.True(t, callTicker.Tick())
	assert.Equal(t, 0, <-calls)
	r.Cancel("room")
}

func TestCancelIsIdempotent(t *testing.T) {
	tickers := NewManualTickers()
	r := NewRegistry(tickers)

	r.Cancel("missing")
	r.Start("room", KindCalls, time.Second, func(ctx context.Context, tick int) bool { return true })
	tk := nextTicker(t, tickers)

	r.Cancel("room")
	r.Cancel("room")
	require.True(t, stopped(tk))
	assert.Equal(t, KindNone, r.Active("room"))
}

func TestAfterRunsOnce(t *testing.T) {
	tickers := NewManualTickers()
	r := NewRegistry(tickers)

	ran := make(chan struct{}, 2)
	r.After("room", KindRecycle, 10*time.Second, func(ctx context.Context) { ran <- struct{}{} })

	tk := nextTicker(t, tickers)
	assert.Equal(t, 10*time.Second, tk.Interval)
	require.True(t, tk.Tick())
	<-ran
	require.True(t, stopped(tk))
	assert.Len(t, ran, 0)
}

func TestShutdown(t *testing.T) {
	tickers := NewManualTickers()
	r := NewRegistry(tickers)

	r.Start("a", KindCalls, time.Second, func(ctx context.Context, tick int) bool { return true })
	r.Start("b", KindCountdown, time.Second, func(ctx context.Context, tick int) bool { return true })
	a, b := nextTicker(t, tickers), nextTicker(t, tickers)

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))

	assert.True(t, stopped(a))
	assert.True(t, stopped(b))
	assert.Equal(t, 0, r.Len())

	r.Start("c", KindCalls, time.Second, func(ctx context.Context, tick int) bool { return true })
	assert.Equal(t, 0, r.Len(), "closed registry must not start tasks")
}
