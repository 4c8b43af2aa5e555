// Package scheduler runs the timed tasks of bingo rooms. Each room has at most
// one task at a time; starting a task for a room cancels the previous one.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Kind tells which timed task a room is running.
type Kind string

const (
	KindNone      Kind = ""
	KindCountdown Kind = "countdown"
	KindCalls     Kind = "calls"
	KindRecycle   Kind = "recycle"
)

// TickFunc is invoked on every tick with a zero-based tick index. Returning
// false ends the task. ctx is cancelled as soon as the task is replaced or
// cancelled.
type TickFunc func(ctx context.Context, tick int) bool

type task struct {
	kind   Kind
	cancel context.CancelFunc
}

// Registry maps room ids to their running task.
type Registry struct {
	mu      sync.Mutex
	tasks   map[string]*task
	tickers TickerCreator
	closed  bool
	wg      sync.WaitGroup
}

// NewRegistry creates an empty registry.
func NewRegistry(tickers TickerCreator) *Registry {
	return &Registry{
		tasks:   make(map[string]*task),
		tickers: tickers,
	}
}

// Start cancels whatever task roomID is running and starts fn on a ticker with
// the given interval. Safe to call from inside a running TickFunc.
func (r *Registry) Start(roomID string, kind Kind, interval time.Duration, fn TickFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if prev, ok := r.tasks[roomID]; ok {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{kind: kind, cancel: cancel}
	r.tasks[roomID] = t

	r.wg.Add(1)
	go r.run(ctx, roomID, t, interval, fn)
}

// After runs fn once after delay, occupying the room's task slot meanwhile.
func (r *Registry) After(roomID string, kind Kind, delay time.Duration, fn func(ctx context.Context)) {
	r.Start(roomID, kind, delay, func(ctx context.Context, _ int) bool {
		fn(ctx)
		return false
	})
}

func (r *Registry) run(ctx context.Context, roomID string, t *task, interval time.Duration, fn TickFunc) {
	defer r.wg.Done()
	defer r.remove(roomID, t)

	ticks, stop := r.tickers.Create(interval)
	defer stop()

	for tick := 0; ; tick++ {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}
		if ctx.Err() != nil {
			return
		}
		if !fn(ctx, tick) {
			return
		}
	}
}

// remove drops t from the registry unless it has already been replaced.
func (r *Registry) remove(roomID string, t *task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.tasks[roomID]; ok && existing == t {
		delete(r.tasks, roomID)
	}
	t.cancel()
}

// Cancel stops the room's task if there is one. Safe to call repeatedly.
func (r *Registry) Cancel(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[roomID]; ok {
		t.cancel()
		delete(r.tasks, roomID)
	}
}

// Active returns the kind of task the room is running.
func (r *Registry) Active(roomID string) Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[roomID]; ok {
		return t.kind
	}
	return KindNone
}

// Len returns the number of rooms with a running task.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Shutdown cancels every task, refuses new ones and waits for running tasks
// to return or for ctx to expire.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	for id, t := range r.tasks {
		t.cancel()
		delete(r.tasks, id)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
