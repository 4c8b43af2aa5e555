// Package app wires the bingo hall together: stores, caches, services and
// the realtime hub.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bingohall/internal/bingo"
	"bingohall/internal/cache"
	"bingohall/internal/config"
	"bingohall/internal/repository"
	"bingohall/internal/scheduler"
	"bingohall/internal/service"
	"bingohall/internal/transport/rest"
	"bingohall/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

const pingTimeout = 5 * time.Second

type App struct {
	Config       *config.Config
	Log          *zap.SugaredLogger
	SessionRepo  repository.SessionRepo
	SessionCache cache.SessionCache     // nil without Redis
	Leaderboard  cache.LeaderboardCache // nil without Redis
	Catalog      *bingo.Catalog
	Tasks        *scheduler.Registry
	Auth         *service.AuthService
	Game         *service.GameService
	Cards        *service.ReservationService
	Hub          *ws.Hub

	mongoClient *mongo.Client
	redisClient *redis.Client
}

// New connects the configured backends and builds every service. With
// STORE=memory a missing Redis is tolerated; with Mongo it is fatal.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	catalog, err := loadCatalog(cfg.Game)
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog

	switch cfg.Store {
	case StoreMemory:
		a.SessionRepo = repository.NewMemorySessionRepo()
		log.Warnw("using in-memory session store, sessions are lost on restart")
	case StoreMongo:
		repo, err := a.connectMongo(ctx)
		if err != nil {
			return nil, err
		}
		a.SessionRepo = repo
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	if err := a.connectRedis(ctx); err != nil {
		if cfg.Store != StoreMemory {
			a.Close(ctx)
			return nil, err
		}
		log.Warnw("running without Redis, snapshots are uncached and the leaderboard is disabled", "error", err)
	}

	a.Tasks = scheduler.NewRegistry(scheduler.NewTickerCreator())
	a.Hub = ws.NewHub(log)
	a.Auth = service.NewAuthService(cfg.JWTSecret)

	a.Game = service.NewGameService(a.SessionRepo, catalog, bingo.NewTimeSeededShuffler(), a.Tasks, cfg.Game, log)
	a.Cards = service.NewReservationService(a.SessionRepo, log)

	// Inject broadcaster (Hub implements service.Broadcaster)
	a.Game.SetBroadcaster(a.Hub)
	a.Cards.SetBroadcaster(a.Hub)
	if a.SessionCache != nil {
		a.Game.SetCache(a.SessionCache)
		a.Cards.SetCache(a.SessionCache)
		a.Game.SetLeaderboard(a.Leaderboard)
	}

	return a, nil
}

func loadCatalog(cfg *config.GameConfig) (*bingo.Catalog, error) {
	if cfg.CardsFile == "" {
		return bingo.DefaultCatalog(), nil
	}
	catalog, err := bingo.LoadCatalog(cfg.CardsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards from %s: %w", cfg.CardsFile, err)
	}
	return catalog, nil
}

func (a *App) connectMongo(ctx context.Context) (*repository.MongoSessionRepo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	a.mongoClient = client
	a.Log.Infow("connected to MongoDB", "db", a.Config.MongoDB)

	repo := repository.NewMongoSessionRepo(client.Database(a.Config.MongoDB))
	if err := repo.EnsureIndexes(pingCtx); err != nil {
		a.Log.Warnw("failed to ensure session indexes", "error", err)
	}
	return repo, nil
}

func (a *App) connectRedis(ctx context.Context) error {
	if a.Config.RedisAddr == "" {
		return errors.New("REDIS_URI is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr: a.Config.RedisAddr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	a.redisClient = client
	a.SessionCache = cache.NewSessionCache(client)
	a.Leaderboard = cache.NewLeaderboardCache(client)
	a.Log.Infow("connected to Redis", "addr", a.Config.RedisAddr)
	return nil
}

// Router builds the HTTP handler for the app.
func (a *App) Router() http.Handler {
	c := &rest.Container{
		Config:             a.Config,
		AuthService:        a.Auth,
		GameService:        a.Game,
		ReservationService: a.Cards,
		Catalog:            a.Catalog,
		Leaderboard:        a.Leaderboard,
		WSHub:              a.Hub,
		Logger:             a.Log,
	}
	return rest.NewRouter(c)
}

// Shutdown stops every room timer, then closes the hub and the backends.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.Game != nil {
		err = a.Game.Shutdown(ctx)
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	a.Close(ctx)
	return err
}

// Close releases the backend connections.
func (a *App) Close(ctx context.Context) {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Log.Warnw("failed to close Redis", "error", err)
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.Log.Warnw("failed to disconnect MongoDB", "error", err)
		}
	}
}
