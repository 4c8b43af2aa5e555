package handler

import (
	"errors"
	"net/http"

	"bingohall/internal/config"
	"bingohall/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionHandler serves session snapshots and the stake list
type SessionHandler struct {
	gameSvc *service.GameService
	cfg     *config.GameConfig
	log     *zap.SugaredLogger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(gameSvc *service.GameService, cfg *config.GameConfig, log *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{
		gameSvc: gameSvc,
		cfg:     cfg,
		log:     log,
	}
}

// Get handles GET /v1/sessions/{id}
// @Summary Get a session snapshot
// @Tags sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} model.Session
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, err := h.gameSvc.Snapshot(r.Context(), id)
	if errors.Is(err, service.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.log.Errorw("failed to load session", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Stakes handles GET /v1/stakes
// @Summary List the accepted stakes
// @Tags sessions
// @Router /stakes [get]
func (h *SessionHandler) Stakes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stakes": h.cfg.Stakes,
	})
}
