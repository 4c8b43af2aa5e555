package cache

import (
	"context"
	"errors"
	"fmt"

	"bingohall/internal/model"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache counts round wins per stake in a Redis ZSET. Display
// names live in a hash next to it.
type LeaderboardCache interface {
	RecordWin(ctx context.Context, bid int, winner model.Identity) error
	GetTop(ctx context.Context, bid int, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, bid int, userID string) (int64, error)
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Rank   int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(bid int) string {
	return fmt.Sprintf("stake:%d:wins", bid)
}

func (c *leaderboardCache) namesKey() string {
	return "players:names"
}

func (c *leaderboardCache) RecordWin(ctx context.Context, bid int, winner model.Identity) error {
	pipe := c.client.TxPipeline()
	pipe.ZIncrBy(ctx, c.key(bid), 1, winner.ID)
	if winner.Name != "" {
		pipe.HSet(ctx, c.namesKey(), winner.ID, winner.Name)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *leaderboardCache) GetTop(ctx context.Context, bid int, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return []LeaderboardEntry{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(bid), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	ids := make([]string, len(results))
	for i, z := range results {
		ids[i] = z.Member.(string)
		entries[i] = LeaderboardEntry{
			UserID: ids[i],
			Wins:   int(z.Score),
			Rank:   i + 1,
		}
	}
	if len(ids) == 0 {
		return entries, nil
	}

	names, err := c.client.HMGet(ctx, c.namesKey(), ids...).Result()
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		if s, ok := name.(string); ok {
			entries[i].Name = s
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, bid int, userID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(bid), userID).Result()
	if errors.Is(err, redis.Nil) {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
