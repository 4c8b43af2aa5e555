package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"bingohall/internal/model"
)

// MemorySessionRepo is an in-process SessionRepo. It applies the same guards
// as the Mongo store under one mutex and only ever hands out copies.
type MemorySessionRepo struct {
	sessions map[string]*model.Session
	order    []string
	mutex    sync.RWMutex
}

// NewMemorySessionRepo creates an empty in-memory store
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]*model.Session),
	}
}

func (r *MemorySessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return ErrDuplicateSession
	}
	r.sessions[session.ID] = session.Clone()
	r.order = append(r.order, session.ID)
	return nil
}

func (r *MemorySessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, nil
	}
	return session.Clone(), nil
}

func (r *MemorySessionRepo) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.sessions[id]; !exists {
		return nil
	}
	delete(r.sessions, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemorySessionRepo) FindJoinable(_ context.Context, bid int, userID string) (*model.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var own, oldest *model.Session
	for _, id := range r.order {
		s := r.sessions[id]
		if s.BidAmount != bid {
			continue
		}
		if slices.Contains(rejoinable, s.Status) && s.Player(userID) != nil {
			if own == nil || s.CreatedAt.After(own.CreatedAt) {
				own = s
			}
		}
		if s.Status == model.SessionWaiting && (oldest == nil || s.CreatedAt.Before(oldest.CreatedAt)) {
			oldest = s
		}
	}
	switch {
	case own != nil:
		return own.Clone(), nil
	case oldest != nil:
		return oldest.Clone(), nil
	}
	return nil, nil
}

func (r *MemorySessionRepo) AddPlayer(_ context.Context, id, userID string) (bool, error) {
	return r.mutate(id, func(s *model.Session) bool {
		if s.Status != model.SessionWaiting || s.Player(userID) != nil {
			return false
		}
		s.Players = append(s.Players, model.SessionPlayer{UserID: userID, Status: model.PlayerNotReady})
		return true
	})
}

func (r *MemorySessionRepo) MarkReady(_ context.Context, id, userID string) (bool, error) {
	return r.mutate(id, func(s *model.Session) bool {
		if !isReservable(s.Status) {
			return false
		}
		p := s.Player(userID)
		if p == nil {
			return false
		}
		p.Status = model.PlayerReady
		return true
	})
}

func (r *MemorySessionRepo) BeginCountdown(_ context.Context, id string) (bool, error) {
	return r.mutate(id, func(s *model.Session) bool {
		if s.Status != model.SessionWaiting || s.CountdownStarted || !s.AllReady() {
			return false
		}
		s.Status = model.SessionCountdown
		s.CountdownStarted = true
		return true
	})
}

func (r *MemorySessionRepo) BeginRound(_ context.Context, id string, fallback []model.CalledNumber, now time.Time) (*model.Session, error) {
	var updated *model.Session
	_, err := r.mutate(id, func(s *model.Session) bool {
		if s.Status != model.SessionCountdown {
			return false
		}
		s.Status = model.SessionOngoing
		s.CountdownStarted = false
		s.CalledNumbers = []model.CalledNumber{}
		if len(s.ShuffledNumbers) == 0 {
			s.ShuffledNumbers = append([]model.CalledNumber(nil), fallback...)
		}
		start := now
		s.StartTime = &start
		updated = s.Clone()
		return true
	})
	return updated, err
}

func (r *MemorySessionRepo) AppendCall(_ context.Context, id string, index int, call model.CalledNumber) (bool, error) {
	return r.mutate(id, func(s *model.Session) bool {
		if s.Status != model.SessionOngoing || len(s.CalledNumbers) != index {
			return false
		}
		s.CalledNumbers = append(s.CalledNumbers, call)
		return true
	})
}

func (r *MemorySessionRepo) Complete(_ context.Context, id, winner string, card int, now time.Time) (bool, error) {
	return r.mutate(id, func(s *model.Session) bool {
		if s.Status != model.SessionOngoing {
			return false
		}
		s.Status = model.SessionCompleted
		s.Winner = winner
		s.WinnerCard = card
		end := now
		s.EndTime = &end
		return true
	})
}

func (r *MemorySessionRepo) Recycle(_ context.Context, id string, from model.SessionStatus, shuffled []model.CalledNumber) (bool, error) {
	return r.mutate(id, func(s *model.Session) bool {
		if s.Status != from {
			return false
		}
		s.Status = model.SessionWaiting
		s.ShuffledNumbers = append([]model.CalledNumber(nil), shuffled...)
		s.CalledNumbers = []model.CalledNumber{}
		s.Winner = ""
		s.WinnerCard = 0
		s.StartTime = nil
		s.EndTime = nil
		s.CountdownStarted = false
		for i := range s.Players {
			s.Players[i].Status = model.PlayerNotReady
		}
		for i := range s.Cards {
			s.Cards[i].Reserved = false
			s.Cards[i].ReservedBy = ""
		}
		return true
	})
}

func (r *MemorySessionRepo) ReserveCards(_ context.Context, id, userID string, cards []int) (bool, error) {
	cards = uniqueCards(cards)
	if len(cards) == 0 {
		return false, nil
	}
	return r.mutate(id, func(s *model.Session) bool {
		if !isReservable(s.Status) {
			return false
		}
		for _, n := range cards {
			c := s.Card(n)
			if c == nil || (c.Reserved && c.ReservedBy != userID) {
				return false
			}
		}
		for _, n := range cards {
			c := s.Card(n)
			c.Reserved = true
			c.ReservedBy = userID
		}
		return true
	})
}

func (r *MemorySessionRepo) UnreserveCards(_ context.Context, id, userID string, cards []int) (bool, error) {
	cards = uniqueCards(cards)
	if len(cards) == 0 {
		return false, nil
	}
	return r.mutate(id, func(s *model.Session) bool {
		for _, n := range cards {
			c := s.Card(n)
			if c == nil || !c.Reserved || c.ReservedBy != userID {
				return false
			}
		}
		for _, n := range cards {
			c := s.Card(n)
			c.Reserved = false
			c.ReservedBy = ""
		}
		return true
	})
}

// mutate applies fn to the stored session under the write lock. fn reports
// whether its guard held; a missing session is not an error.
func (r *MemorySessionRepo) mutate(id string, fn func(s *model.Session) bool) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, exists := r.sessions[id]
	if !exists {
		return false, nil
	}
	// work on a copy so a guard that fails halfway leaves no trace
	draft := s.Clone()
	if !fn(draft) {
		return false, nil
	}
	draft.UpdatedAt = time.Now()
	r.sessions[id] = draft
	return true, nil
}

func isReservable(status model.SessionStatus) bool {
	for _, s := range reservable {
		if s == status {
			return true
		}
	}
	return false
}
