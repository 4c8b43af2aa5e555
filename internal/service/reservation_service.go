package service

import (
	"context"
	"fmt"

	"bingohall/internal/cache"
	"bingohall/internal/model"
	"bingohall/internal/repository"

	"go.uber.org/zap"
)

// ReservationService hands cards to players. Batches are all-or-nothing:
// if any requested card cannot change hands, none does.
type ReservationService struct {
	publisher
}

// NewReservationService creates a new reservation service
func NewReservationService(repo repository.SessionRepo, log *zap.SugaredLogger) *ReservationService {
	return &ReservationService{
		publisher: publisher{repo: repo, log: log},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *ReservationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetCache enables the Redis snapshot cache
func (s *ReservationService) SetCache(c cache.SessionCache) {
	s.cache = c
}

func (s *ReservationService) Reserve(ctx context.Context, userID, sessionID string, cardNumber int) error {
	return s.ReserveMany(ctx, userID, sessionID, []int{cardNumber})
}

func (s *ReservationService) Unreserve(ctx context.Context, userID, sessionID string, cardNumber int) error {
	return s.UnreserveMany(ctx, userID, sessionID, []int{cardNumber})
}

// ReserveMany reserves every card in cardNumbers for userID. Cards the user
// already holds count as available.
func (s *ReservationService) ReserveMany(ctx context.Context, userID, sessionID string, cardNumbers []int) error {
	if len(cardNumbers) == 0 {
		return fmt.Errorf("%w: no cards requested", ErrCardNotFound)
	}

	reserved, err := s.repo.ReserveCards(ctx, sessionID, userID, cardNumbers)
	if err != nil {
		return fmt.Errorf("failed to reserve cards: %w", err)
	}
	if !reserved {
		return s.whyNot(ctx, sessionID, userID, cardNumbers, true)
	}

	s.log.Debugw("cards reserved", "session", sessionID, "user", userID, "cards", cardNumbers)
	_, err = s.publish(ctx, sessionID)
	return err
}

// UnreserveMany releases every card in cardNumbers, all of which must be
// held by userID.
func (s *ReservationService) UnreserveMany(ctx context.Context, userID, sessionID string, cardNumbers []int) error {
	if len(cardNumbers) == 0 {
		return fmt.Errorf("%w: no cards requested", ErrCardNotFound)
	}

	released, err := s.repo.UnreserveCards(ctx, sessionID, userID, cardNumbers)
	if err != nil {
		return fmt.Errorf("failed to unreserve cards: %w", err)
	}
	if !released {
		return s.whyNot(ctx, sessionID, userID, cardNumbers, false)
	}

	s.log.Debugw("cards released", "session", sessionID, "user", userID, "cards", cardNumbers)
	_, err = s.publish(ctx, sessionID)
	return err
}

// whyNot explains a reservation change that did not apply. The session is
// read after the fact, so the answer is a best guess under concurrency.
func (s *ReservationService) whyNot(ctx context.Context, sessionID, userID string, cardNumbers []int, reserving bool) error {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	for _, n := range cardNumbers {
		if session.Card(n) == nil {
			return fmt.Errorf("%w: %d", ErrCardNotFound, n)
		}
	}
	if reserving && session.Status != model.SessionWaiting && session.Status != model.SessionCountdown {
		return fmt.Errorf("%w: cards are locked while %s", ErrInvalidState, session.Status)
	}
	for _, n := range cardNumbers {
		card := session.Card(n)
		if reserving && card.Reserved && card.ReservedBy != userID {
			return fmt.Errorf("%w: %d", ErrCardUnavailable, n)
		}
		if !reserving && card.ReservedBy != userID {
			return fmt.Errorf("%w: %d", ErrNotCardOwner, n)
		}
	}
	// a concurrent change released the conflict again
	if reserving {
		return ErrCardUnavailable
	}
	return ErrNotCardOwner
}
