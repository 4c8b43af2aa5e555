package handler

import (
	"net/http"
	"strconv"

	"bingohall/internal/cache"
	"bingohall/internal/config"
	"bingohall/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultTop = 10
	maxTop     = 100
)

// LeaderboardHandler serves win counts per stake
type LeaderboardHandler struct {
	leaderboard cache.LeaderboardCache
	cfg         *config.GameConfig
	log         *zap.SugaredLogger
}

// NewLeaderboardHandler creates a new leaderboard handler. leaderboard may
// be nil when Redis is not configured.
func NewLeaderboardHandler(leaderboard cache.LeaderboardCache, cfg *config.GameConfig, log *zap.SugaredLogger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		cfg:         cfg,
		log:         log,
	}
}

// Top handles GET /v1/leaderboard/{bid}?top=N
// @Summary Top winners for a stake
// @Tags leaderboard
// @Param bid path int true "Stake"
// @Param top query int false "Number of entries (max 100)"
// @Router /leaderboard/{bid} [get]
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	bid, ok := h.stake(w, r)
	if !ok {
		return
	}

	top := defaultTop
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive number")
			return
		}
		top = min(n, maxTop)
	}

	entries, err := h.leaderboard.GetTop(r.Context(), bid, top)
	if err != nil {
		h.log.Errorw("failed to load leaderboard", "bid", bid, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bidAmount": bid,
		"entries":   entries,
	})
}

// Me handles GET /v1/leaderboard/{bid}/me
// @Summary Caller's rank for a stake
// @Tags leaderboard
// @Security BearerAuth
// @Param bid path int true "Stake"
// @Router /leaderboard/{bid}/me [get]
func (h *LeaderboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	bid, ok := h.stake(w, r)
	if !ok {
		return
	}
	user := middleware.GetUser(r.Context())

	rank, err := h.leaderboard.GetRank(r.Context(), bid, user.ID)
	if err != nil {
		h.log.Errorw("failed to load rank", "bid", bid, "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load rank")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bidAmount": bid,
		"userId":    user.ID,
		"rank":      rank, // -1 without wins
	})
}

func (h *LeaderboardHandler) stake(w http.ResponseWriter, r *http.Request) (int, bool) {
	if h.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, "leaderboard disabled")
		return 0, false
	}
	bid, err := strconv.Atoi(mux.Vars(r)["bid"])
	if err != nil || !h.cfg.AllowsStake(bid) {
		writeError(w, http.StatusNotFound, "unknown stake")
		return 0, false
	}
	return bid, true
}
