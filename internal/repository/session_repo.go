package repository

import (
	"context"
	"errors"
	"time"

	"bingohall/internal/model"
)

var ErrDuplicateSession = errors.New("session already exists")

// SessionRepo persists bingo sessions. Every mutation is a single conditional
// update on one session: it applies only if its guard holds on the stored
// state, and reports through its bool result whether it applied. Nothing
// here reads a whole session and writes it back.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error

	// FindJoinable returns the session at bid that userID already plays in,
	// unless its round is completed. Without one it returns the oldest
	// waiting session at bid.
	FindJoinable(ctx context.Context, bid int, userID string) (*model.Session, error)

	// AddPlayer appends userID as not_ready if the session is waiting and
	// userID is not a player yet.
	AddPlayer(ctx context.Context, id, userID string) (bool, error)

	// MarkReady sets userID's status to ready while the session is waiting
	// or counting down. Re-marking counts as applied.
	MarkReady(ctx context.Context, id, userID string) (bool, error)

	// BeginCountdown moves waiting -> countdown and sets countdownStarted if
	// every player is ready and no countdown was started.
	BeginCountdown(ctx context.Context, id string) (bool, error)

	// BeginRound moves countdown -> ongoing, clears the calls, resets
	// countdownStarted and stamps startTime. The existing call order is kept
	// unless it is empty, in which case fallback is stored. Returns the
	// updated session, or nil if the guard did not hold.
	BeginRound(ctx context.Context, id string, fallback []model.CalledNumber, now time.Time) (*model.Session, error)

	// AppendCall pushes call if the session is ongoing and exactly index
	// calls were made, so calls form an ordered prefix of the call order.
	AppendCall(ctx context.Context, id string, index int, call model.CalledNumber) (bool, error)

	// Complete moves ongoing -> completed and records the winner once.
	Complete(ctx context.Context, id, winner string, card int, now time.Time) (bool, error)

	// Recycle moves a session in status from back to waiting with a new call
	// order, no calls, no winner, every player not_ready and every card free.
	Recycle(ctx context.Context, id string, from model.SessionStatus, shuffled []model.CalledNumber) (bool, error)

	// ReserveCards reserves all of cards for userID if each of them is free
	// or already held by userID and the session is waiting or counting down.
	// Either every card is reserved or none is.
	ReserveCards(ctx context.Context, id, userID string, cards []int) (bool, error)

	// UnreserveCards releases all of cards if each of them is held by userID.
	// Either every card is released or none is.
	UnreserveCards(ctx context.Context, id, userID string, cards []int) (bool, error)
}

// reservable are the statuses in which cards may change hands
var reservable = []model.SessionStatus{model.SessionWaiting, model.SessionCountdown}

// rejoinable are the statuses in which a player goes back to their own session
var rejoinable = []model.SessionStatus{model.SessionWaiting, model.SessionCountdown, model.SessionOngoing}
