package service

import (
	"context"
	"fmt"

	"bingohall/internal/cache"
	"bingohall/internal/model"
	"bingohall/internal/repository"

	"go.uber.org/zap"
)

// publisher reads sessions through the snapshot cache and pushes fresh
// snapshots to rooms. Both the cache and the broadcaster are optional.
type publisher struct {
	repo        repository.SessionRepo
	cache       cache.SessionCache
	broadcaster Broadcaster
	log         *zap.SugaredLogger
}

// snapshot returns the session, from the cache when it holds one.
func (p *publisher) snapshot(ctx context.Context, sessionID string) (*model.Session, error) {
	if p.cache != nil {
		cached, err := p.cache.Get(ctx, sessionID)
		if err != nil {
			p.log.Warnw("snapshot cache read failed", "session", sessionID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	session, err := p.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	p.store(ctx, session)
	return session, nil
}

// publish reloads the session from the store, refreshes the cache and sends
// the snapshot to the room.
func (p *publisher) publish(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := p.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	p.announce(ctx, session)
	return session, nil
}

// announce caches and broadcasts a snapshot the caller already holds.
func (p *publisher) announce(ctx context.Context, session *model.Session) {
	p.store(ctx, session)
	p.toRoom(session.ID, EventSessionUpdate, session)
}

func (p *publisher) store(ctx context.Context, session *model.Session) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, session); err != nil {
		p.log.Warnw("snapshot cache write failed", "session", session.ID, "error", err)
	}
}

// refresh reloads the cached snapshot after a change that is not broadcast
// as a full snapshot.
func (p *publisher) refresh(ctx context.Context, sessionID string) {
	if p.cache == nil {
		return
	}
	session, err := p.repo.GetByID(ctx, sessionID)
	if err != nil || session == nil {
		p.log.Warnw("snapshot refresh failed, dropping cached copy", "session", sessionID, "error", err)
		p.forget(ctx, sessionID)
		return
	}
	p.store(ctx, session)
}

// forget drops the cached snapshot.
func (p *publisher) forget(ctx context.Context, sessionID string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, sessionID); err != nil {
		p.log.Warnw("snapshot cache delete failed", "session", sessionID, "error", err)
	}
}

func (p *publisher) toRoom(roomID, msgType string, payload interface{}) {
	if p.broadcaster != nil {
		p.broadcaster.BroadcastToRoom(roomID, msgType, payload)
	}
}

func (p *publisher) toPlayer(userID, msgType string, payload interface{}) {
	if p.broadcaster != nil {
		p.broadcaster.BroadcastToPlayer(userID, msgType, payload)
	}
}
