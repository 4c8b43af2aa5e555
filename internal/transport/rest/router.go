package rest

import (
	"net/http"

	"bingohall/internal/bingo"
	"bingohall/internal/cache"
	"bingohall/internal/config"
	"bingohall/internal/service"
	"bingohall/internal/transport/rest/docs"
	"bingohall/internal/transport/rest/handler"
	"bingohall/internal/transport/rest/middleware"
	"bingohall/internal/transport/ws"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	Config             *config.Config
	AuthService        *service.AuthService
	GameService        *service.GameService
	ReservationService *service.ReservationService
	Catalog            *bingo.Catalog
	Leaderboard        cache.LeaderboardCache // optional
	WSHub              *ws.Hub
	Logger             *zap.SugaredLogger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.GameService, c.Config.Game, c.Logger)
	cardHandler := handler.NewCardHandler(c.Catalog)
	leaderboardHandler := handler.NewLeaderboardHandler(c.Leaderboard, c.Config.Game, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.GameService, c.ReservationService,
		c.Config.WS, c.Config.Game.OpTimeout, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.Config.CORSOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// OpenAPI description
	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			c.Logger.Errorw("failed to render api docs", "error", err)
			http.Error(w, "docs unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/stakes", sessionHandler.Stakes).Methods("GET", "OPTIONS")
	v1.HandleFunc("/cards", cardHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/leaderboard/{bid}", leaderboardHandler.Top).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	// Player routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/leaderboard/{bid}/me", leaderboardHandler.Me).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
