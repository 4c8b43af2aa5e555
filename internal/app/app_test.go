package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bingohall/internal/config"
	"bingohall/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(redisAddr string) *config.Config {
	return &config.Config{
		RedisAddr: redisAddr,
		JWTSecret: "secret",
		Store:     StoreMemory,
		Game: &config.GameConfig{
			Stakes:            []int{10},
			CountdownStart:    45,
			CountdownInterval: time.Second,
			CallInterval:      5 * time.Second,
			RecycleDelay:      10 * time.Second,
			OpTimeout:         time.Second,
		},
		WS: config.WSConfig{RateLimit: 10, RateBurst: 20},
	}
}

func TestNew_MemoryStoreWithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	a, err := New(ctx, testConfig(mr.Addr()), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(ctx) })

	require.NotNil(t, a.SessionCache)
	require.NotNil(t, a.Leaderboard)

	s, err := a.Game.Join(ctx, model.Identity{ID: "u1", Name: "Alice"}, 10)
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+s.ID))

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leaderboard/10", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_MemoryStoreToleratesMissingRedis(t *testing.T) {
	ctx := context.Background()

	a, err := New(ctx, testConfig(""), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(ctx) })

	assert.Nil(t, a.SessionCache)
	assert.Nil(t, a.Leaderboard)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leaderboard/10", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop().Sugar()

	cfg := testConfig("")
	cfg.Store = "sqlite"
	_, err := New(ctx, cfg, log)
	assert.ErrorContains(t, err, "unknown store")

	cfg = testConfig("")
	cfg.Game.CardsFile = "does-not-exist.json"
	_, err = New(ctx, cfg, log)
	assert.ErrorContains(t, err, "failed to load cards")
}
