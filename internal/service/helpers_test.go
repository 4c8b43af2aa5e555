package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bingohall/internal/bingo"
	"bingohall/internal/config"
	"bingohall/internal/model"
	"bingohall/internal/repository"
	"bingohall/internal/scheduler"
	"bingohall/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const wait = time.Second

type sent struct {
	To      string // room or user id
	Room    bool
	Type    string
	Payload interface{}
}

// recorder is a Broadcaster that keeps everything it is asked to send.
type recorder struct {
	mu           sync.Mutex
	rooms        map[string]map[string]bool
	messages     []sent
	disconnected []string
}

func newRecorder() *recorder {
	return &recorder{rooms: make(map[string]map[string]bool)}
}

func (r *recorder) JoinRoom(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]bool)
	}
	r.rooms[roomID][userID] = true
}

func (r *recorder) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, sent{To: roomID, Room: true, Type: msgType, Payload: payload})
}

func (r *recorder) BroadcastToPlayer(userID string, msgType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, sent{To: userID, Type: msgType, Payload: payload})
}

func (r *recorder) DisconnectRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
	r.disconnected = append(r.disconnected, roomID)
}

func (r *recorder) ofType(msgType string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, m := range r.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) inRoom(roomID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[roomID][userID]
}

// drop forgets a membership the way a closed connection does.
func (r *recorder) drop(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms[roomID], userID)
}

var errStoreDown = errors.New("store unavailable")

// faultyRepo fails the next n calls of the named operations with
// errStoreDown and passes everything else through.
type faultyRepo struct {
	repository.SessionRepo
	mu    sync.Mutex
	fails map[string]int
}

func (r *faultyRepo) failNext(op string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fails[op] += n
}

func (r *faultyRepo) fault(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails[op] > 0 {
		r.fails[op]--
		return errStoreDown
	}
	return nil
}

func (r *faultyRepo) MarkReady(ctx context.Context, id, userID string) (bool, error) {
	if err := r.fault("MarkReady"); err != nil {
		return false, err
	}
	return r.SessionRepo.MarkReady(ctx, id, userID)
}

func (r *faultyRepo) BeginRound(ctx context.Context, id string, fallback []model.CalledNumber, now time.Time) (*model.Session, error) {
	if err := r.fault("BeginRound"); err != nil {
		return nil, err
	}
	return r.SessionRepo.BeginRound(ctx, id, fallback, now)
}

func (r *faultyRepo) AppendCall(ctx context.Context, id string, index int, call model.CalledNumber) (bool, error) {
	if err := r.fault("AppendCall"); err != nil {
		return false, err
	}
	return r.SessionRepo.AppendCall(ctx, id, index, call)
}

func (r *faultyRepo) Recycle(ctx context.Context, id string, from model.SessionStatus, shuffled []model.CalledNumber) (bool, error) {
	if err := r.fault("Recycle"); err != nil {
		return false, err
	}
	return r.SessionRepo.Recycle(ctx, id, from, shuffled)
}

type harness struct {
	game    *service.GameService
	cards   *service.ReservationService
	store   *faultyRepo
	repo    *repository.MemorySessionRepo
	tickers *scheduler.ManualTickers
	tasks   *scheduler.Registry
	rec     *recorder
	cfg     *config.GameConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.GameConfig{
		Stakes:            []int{10, 20},
		CountdownStart:    3,
		CountdownInterval: time.Second,
		CallInterval:      5 * time.Second,
		RecycleDelay:      10 * time.Second,
		OpTimeout:         time.Second,
	}
	log := zap.NewNop().Sugar()
	repo := repository.NewMemorySessionRepo()
	store := &faultyRepo{SessionRepo: repo, fails: make(map[string]int)}
	tickers := scheduler.NewManualTickers()
	tasks := scheduler.NewRegistry(tickers)
	rec := newRecorder()

	game := service.NewGameService(store, bingo.DefaultCatalog(), bingo.NewShuffler(1), tasks, cfg, log)
	game.SetBroadcaster(rec)
	cards := service.NewReservationService(store, log)
	cards.SetBroadcaster(rec)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		_ = game.Shutdown(ctx)
	})

	return &harness{game: game, cards: cards, store: store, repo: repo, tickers: tickers, tasks: tasks, rec: rec, cfg: cfg}
}

func (h *harness) session(t *testing.T, id string) *model.Session {
	t.Helper()
	s, err := h.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func (h *harness) nextTicker(t *testing.T) *scheduler.ManualTicker {
	t.Helper()
	tk, ok := h.tickers.Next(wait)
	require.True(t, ok, "expected a timer to be armed")
	return tk
}

func (h *harness) noTicker(t *testing.T) {
	t.Helper()
	_, ok := h.tickers.Next(50 * time.Millisecond)
	require.False(t, ok, "no timer should be armed")
}

func (h *harness) waitFor(t *testing.T, id string, cond func(s *model.Session) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := h.repo.GetByID(context.Background(), id)
		return err == nil && s != nil && cond(s)
	}, wait, time.Millisecond)
}

// runCountdown readies everyone and ticks the countdown to the end. It
// returns the call ticker of the started round.
func (h *harness) runCountdown(t *testing.T, id string, users ...model.Identity) *scheduler.ManualTicker {
	t.Helper()
	ctx := context.Background()
	for _, u := range users {
		require.NoError(t, h.game.Ready(ctx, u, id))
	}

	countdown := h.nextTicker(t)
	for i := 0; i <= h.cfg.CountdownStart; i++ {
		require.True(t, countdown.Tick())
	}
	h.waitFor(t, id, func(s *model.Session) bool { return s.Status == model.SessionOngoing })
	return h.nextTicker(t)
}

// callUntil ticks the call ticker until n numbers are called.
func (h *harness) callUntil(t *testing.T, id string, calls *scheduler.ManualTicker, n int) {
	t.Helper()
	for i := len(h.session(t, id).CalledNumbers); i < n; i++ {
		require.True(t, calls.Tick())
		want := i + 1
		h.waitFor(t, id, func(s *model.Session) bool { return len(s.CalledNumbers) == want })
	}
}

func stopped(tk *scheduler.ManualTicker) bool {
	select {
	case <-tk.Stopped():
		return true
	case <-time.After(wait):
		return false
	}
}

func position(order []model.CalledNumber, number int) int {
	for i, c := range order {
		if c.Number == number {
			return i
		}
	}
	return -1
}

// lastCall returns how many calls it takes until every number of column
// has been called.
func lastCall(order []model.CalledNumber, column []int) int {
	last := 0
	for _, n := range column {
		if p := position(order, n); p > last {
			last = p
		}
	}
	return last + 1
}
