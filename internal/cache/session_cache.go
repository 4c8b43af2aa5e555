package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bingohall/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache keeps the latest broadcast snapshot of each session so reads
// do not have to hit the session store.
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// maxSetAttempts bounds the retries of a Set that raced another writer
const maxSetAttempts = 3

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Set stores the snapshot unless the cache already holds one with a later
// updatedAt, so a slow writer never replaces a newer snapshot.
func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	key := c.key(session.ID)

	for attempt := 0; attempt < maxSetAttempts; attempt++ {
		err = c.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				var cached struct {
					UpdatedAt time.Time `json:"updatedAt"`
				}
				if json.Unmarshal(current, &cached) == nil && cached.UpdatedAt.After(session.UpdatedAt) {
					return nil
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, c.ttl)
				return nil
			})
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
