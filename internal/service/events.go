package service

import "bingohall/internal/model"

// Outbound event types
const (
	EventSessionUpdate     = "game_session_update"
	EventUserUpdate        = "user-update"
	EventCountdownUpdate   = "count_down_update"
	EventCountdownFinished = "count_down_finished"
	EventCalledNumber      = "called_number"
	EventRestartGame       = "restart_game"
	EventGameEnded         = "game_ended"
	EventError             = "error"
)

type CountdownPayload struct {
	Count int `json:"count"`
}

type CountdownFinishedPayload struct {
	GameSessionID string `json:"gameSessionId"`
}

type RestartPayload struct {
	GameSessionID string `json:"gameSessionId"`
}

// GameEndedPayload announces the winner of a round.
type GameEndedPayload struct {
	GameSessionID string     `json:"gameSessionId"`
	WinnerID      string     `json:"winnerId"`
	WinnerName    string     `json:"winnerName"`
	WinningCard   model.Card `json:"winningCard"`
}

// ErrorPayload tells a client why its request was refused. Event names the
// request type when known.
type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}
