package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bingohall/internal/app"
	"bingohall/internal/config"
	"bingohall/internal/logger"

	"github.com/joho/godotenv"
)

// @title Bingo Hall API
// @version 1.0
// @description Real-time multiplayer bingo sessions
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()

	sugar, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer sugar.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to start", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting",
			"port", cfg.HTTPPort,
			"store", cfg.Store,
			"stakes", cfg.Game.Stakes,
			"countdown", cfg.Game.CountdownStart,
			"callInterval", cfg.Game.CallInterval,
		)
		sugar.Info("endpoints: GET /health, /v1/stakes, /v1/cards, /v1/sessions/{id}, /v1/leaderboard/{bid}, WS /v1/ws")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("listen failed", "error", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("server forced to shutdown", "error", err)
	}
	if err := a.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("room timers did not stop in time", "error", err)
	}

	sugar.Info("server exited")
}
