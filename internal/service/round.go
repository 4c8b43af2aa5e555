package service

import (
	"context"

	"bingohall/internal/model"
	"bingohall/internal/scheduler"
)

// startCountdown broadcasts count_down_update from CountdownStart down to 0,
// one value per interval, then begins the round. Ticks past 0 only retry a
// round that failed to begin.
func (s *GameService) startCountdown(sessionID string) {
	s.tasks.Start(sessionID, scheduler.KindCountdown, s.cfg.CountdownInterval, func(ctx context.Context, tick int) bool {
		count := s.cfg.CountdownStart - tick
		if count >= 0 {
			s.toRoom(sessionID, EventCountdownUpdate, CountdownPayload{Count: count})
		}
		if count > 0 {
			return true
		}
		return s.beginRound(ctx, sessionID)
	})
}

// beginRound moves the session from countdown to ongoing and hands the room
// over to the call ticker. It reports whether the store failed and the
// countdown has to try again.
func (s *GameService) beginRound(ctx context.Context, sessionID string) bool {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	session, err := s.repo.BeginRound(opCtx, sessionID, s.shuffler.Shuffle(), s.now())
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.log.Errorw("failed to begin round, retrying", "session", sessionID, "error", err)
		return true
	}
	if session == nil {
		s.log.Debugw("session left countdown before it finished", "session", sessionID)
		return false
	}

	s.log.Infow("round started", "session", sessionID, "players", len(session.Players))
	s.toRoom(sessionID, EventCountdownFinished, CountdownFinishedPayload{GameSessionID: sessionID})
	s.announce(opCtx, session)
	s.startCalls(sessionID, session.ShuffledNumbers)
	return false
}

// startCalls calls one number of order per interval. A call is only written
// while the session is ongoing and holds exactly the calls before it, so a
// finished or recycled round stops the ticker without writing.
func (s *GameService) startCalls(sessionID string, order []model.CalledNumber) {
	order = append([]model.CalledNumber(nil), order...)
	next := 0

	s.tasks.Start(sessionID, scheduler.KindCalls, s.cfg.CallInterval, func(ctx context.Context, _ int) bool {
		if next >= len(order) {
			return s.exhaust(ctx, sessionID)
		}

		opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
		defer cancel()

		call := order[next]
		appended, err := s.repo.AppendCall(opCtx, sessionID, next, call)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			// retried with the same index on the next tick
			s.log.Errorw("failed to call number", "session", sessionID, "index", next, "error", err)
			return true
		}
		if !appended {
			s.log.Debugw("call ticker stopped", "session", sessionID, "index", next)
			return false
		}

		next++
		s.refresh(opCtx, sessionID)
		s.toRoom(sessionID, EventCalledNumber, call)
		return true
	})
}

// exhaust restarts a round in which every number was called without a
// winner. It reports whether the call ticker has to try again.
func (s *GameService) exhaust(ctx context.Context, sessionID string) bool {
	recycled, err := s.recycle(ctx, sessionID, model.SessionOngoing)
	if err != nil {
		return ctx.Err() == nil
	}
	if recycled {
		s.log.Infow("numbers exhausted, round restarted", "session", sessionID)
		s.toRoom(sessionID, EventRestartGame, RestartPayload{GameSessionID: sessionID})
	}
	return false
}

// scheduleRecycle reopens a completed session after the result was shown
// for RecycleDelay. A failed write is tried again after another delay.
func (s *GameService) scheduleRecycle(sessionID string) {
	s.tasks.After(sessionID, scheduler.KindRecycle, s.cfg.RecycleDelay, func(ctx context.Context) {
		recycled, err := s.recycle(ctx, sessionID, model.SessionCompleted)
		switch {
		case err != nil && ctx.Err() == nil:
			s.scheduleRecycle(sessionID)
		case recycled:
			s.log.Infow("session reopened", "session", sessionID)
		}
	})
}

func (s *GameService) recycle(ctx context.Context, sessionID string, from model.SessionStatus) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	recycled, err := s.repo.Recycle(opCtx, sessionID, from, s.shuffler.Shuffle())
	if err != nil {
		s.log.Errorw("failed to recycle session", "session", sessionID, "from", from, "error", err)
		return false, err
	}
	if !recycled {
		return false, nil
	}
	if _, err := s.publish(opCtx, sessionID); err != nil {
		s.log.Warnw("failed to publish recycled session", "session", sessionID, "error", err)
	}
	return true, nil
}
