package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bingohall/internal/bingo"
	"bingohall/internal/cache"
	"bingohall/internal/config"
	"bingohall/internal/model"
	"bingohall/internal/repository"
	"bingohall/internal/scheduler"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// GameService drives sessions through waiting, countdown, ongoing and
// completed. It owns the per-room timers; room membership is left to the
// broadcaster.
type GameService struct {
	publisher
	cfg         *config.GameConfig
	catalog     *bingo.Catalog
	shuffler    *bingo.Shuffler
	tasks       *scheduler.Registry
	leaderboard cache.LeaderboardCache

	// one lock per stake so matchmaking never opens two waiting sessions
	stakeLocks map[int]*sync.Mutex
	now        func() time.Time
}

// NewGameService creates a new game service
func NewGameService(
	repo repository.SessionRepo,
	catalog *bingo.Catalog,
	shuffler *bingo.Shuffler,
	tasks *scheduler.Registry,
	cfg *config.GameConfig,
	log *zap.SugaredLogger,
) *GameService {
	locks := make(map[int]*sync.Mutex, len(cfg.Stakes))
	for _, bid := range cfg.Stakes {
		locks[bid] = &sync.Mutex{}
	}
	return &GameService{
		publisher:  publisher{repo: repo, log: log},
		cfg:        cfg,
		catalog:    catalog,
		shuffler:   shuffler,
		tasks:      tasks,
		stakeLocks: locks,
		now:        time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetCache enables the Redis snapshot cache
func (s *GameService) SetCache(c cache.SessionCache) {
	s.cache = c
}

// SetLeaderboard enables win counting per stake
func (s *GameService) SetLeaderboard(lb cache.LeaderboardCache) {
	s.leaderboard = lb
}

// Join puts the user into the waiting session at bid, creating one if none
// is open, and returns the session snapshot. A player whose session at bid
// has not completed is sent back to it.
func (s *GameService) Join(ctx context.Context, user model.Identity, bid int) (*model.Session, error) {
	lock, ok := s.stakeLocks[bid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStake, bid)
	}

	lock.Lock()
	sessionID, err := s.matchOrCreate(ctx, user.ID, bid)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.JoinRoom(sessionID, user.ID)
	}
	s.toPlayer(user.ID, EventUserUpdate, user)

	session, err := s.publish(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.log.Infow("player joined", "session", sessionID, "user", user.ID, "bid", bid)
	return session, nil
}

func (s *GameService) matchOrCreate(ctx context.Context, userID string, bid int) (string, error) {
	existing, err := s.repo.FindJoinable(ctx, bid, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	if existing != nil {
		if existing.Player(userID) != nil {
			return existing.ID, nil
		}
		added, err := s.repo.AddPlayer(ctx, existing.ID, userID)
		if err != nil {
			return "", fmt.Errorf("failed to add player: %w", err)
		}
		if added {
			return existing.ID, nil
		}
		// the session left waiting since we looked; open a new one
	}

	now := s.now()
	session := &model.Session{
		ID:              primitive.NewObjectID().Hex(),
		Status:          model.SessionWaiting,
		BidAmount:       bid,
		Players:         []model.SessionPlayer{{UserID: userID, Status: model.PlayerNotReady}},
		Cards:           s.catalog.NewCardSet(),
		ShuffledNumbers: s.shuffler.Shuffle(),
		CalledNumbers:   []model.CalledNumber{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	s.log.Infow("session created", "session", session.ID, "bid", bid)
	return session.ID, nil
}

// Ready marks the user ready. When that leaves every player ready, the
// first request to move the session into countdown arms the countdown.
func (s *GameService) Ready(ctx context.Context, user model.Identity, sessionID string) error {
	marked, err := s.repo.MarkReady(ctx, sessionID, user.ID)
	if err != nil {
		return fmt.Errorf("failed to mark ready: %w", err)
	}
	if !marked {
		return s.whyNotReady(ctx, sessionID, user.ID)
	}

	started, err := s.repo.BeginCountdown(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to start countdown: %w", err)
	}

	if _, err := s.publish(ctx, sessionID); err != nil {
		return err
	}
	if started {
		s.log.Infow("countdown started", "session", sessionID)
		s.startCountdown(sessionID)
	}
	return nil
}

func (s *GameService) whyNotReady(ctx context.Context, sessionID, userID string) error {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Player(userID) == nil {
		return ErrNotAPlayer
	}
	return fmt.Errorf("%w: cannot ready up while %s", ErrInvalidState, session.Status)
}

// GameStart attaches the user to a running round and sends them the
// current snapshot. The round itself is started by the countdown.
func (s *GameService) GameStart(ctx context.Context, user model.Identity, sessionID string) (*model.Session, error) {
	session, err := s.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionOngoing {
		return nil, fmt.Errorf("%w: round is %s", ErrInvalidState, session.Status)
	}

	if s.broadcaster != nil {
		s.broadcaster.JoinRoom(sessionID, user.ID)
	}
	s.toPlayer(user.ID, EventSessionUpdate, session)
	return session, nil
}

// Claim checks a bingo claim and, if it wins, ends the round.
func (s *GameService) Claim(ctx context.Context, user model.Identity, sessionID string, cardNumber int, marked []int) error {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != model.SessionOngoing {
		return fmt.Errorf("%w: round is %s", ErrInvalidState, session.Status)
	}
	card := session.Card(cardNumber)
	if card == nil {
		return fmt.Errorf("%w: no card %d", ErrInvalidClaim, cardNumber)
	}
	if err := bingo.ValidateClaim(*card, marked, session.CalledNumbers); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}

	won, err := s.repo.Complete(ctx, sessionID, user.ID, cardNumber, s.now())
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	if !won {
		return fmt.Errorf("%w: round already decided", ErrInvalidState)
	}
	s.tasks.Cancel(sessionID)

	s.log.Infow("round won", "session", sessionID, "user", user.ID, "card", cardNumber)
	if s.leaderboard != nil {
		if err := s.leaderboard.RecordWin(ctx, session.BidAmount, user); err != nil {
			s.log.Warnw("failed to record win", "session", sessionID, "user", user.ID, "error", err)
		}
	}

	s.toRoom(sessionID, EventGameEnded, GameEndedPayload{
		GameSessionID: sessionID,
		WinnerID:      user.ID,
		WinnerName:    user.Name,
		WinningCard:   card.Clone(),
	})
	if _, err := s.publish(ctx, sessionID); err != nil {
		s.log.Warnw("failed to publish result", "session", sessionID, "error", err)
	}

	s.scheduleRecycle(sessionID)
	return nil
}

// Snapshot returns the current state of a session.
func (s *GameService) Snapshot(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.snapshot(ctx, sessionID)
}

// Teardown removes a session with everything attached to it.
func (s *GameService) Teardown(ctx context.Context, sessionID string) error {
	s.tasks.Cancel(sessionID)
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.forget(ctx, sessionID)
	if s.broadcaster != nil {
		s.broadcaster.DisconnectRoom(sessionID)
	}
	s.log.Infow("session torn down", "session", sessionID)
	return nil
}

// Shutdown stops every room timer and waits for them to exit.
func (s *GameService) Shutdown(ctx context.Context) error {
	return s.tasks.Shutdown(ctx)
}
