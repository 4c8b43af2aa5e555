package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bingohall/internal/config"
	"bingohall/internal/model"
	"bingohall/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var (
	errBadPayload  = errors.New("bad payload")
	errRateLimited = errors.New("too many requests")
)

// genericFailure is all a client learns about internal errors
const genericFailure = "request failed"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// request is the union of every client payload. The acting user always
// comes from the connection's token, never from userId.
type request struct {
	UserID        string              `json:"userId"`
	GameSessionID string              `json:"gameSessionId"`
	BidAmount     int                 `json:"bidAmount"`
	CardNumber    int                 `json:"cardNumber"`
	CardNumbers   []int               `json:"cardNumbers"`
	MarkedNumbers model.MarkedNumbers `json:"markedNumbers"`
}

// Handler handles WebSocket connections
type Handler struct {
	hub       *Hub
	authSvc   *service.AuthService
	game      *service.GameService
	cards     *service.ReservationService
	limits    config.WSConfig
	opTimeout time.Duration
	log       *zap.SugaredLogger
}

// NewHandler creates a new WebSocket handler
func NewHandler(
	hub *Hub,
	authSvc *service.AuthService,
	game *service.GameService,
	cards *service.ReservationService,
	limits config.WSConfig,
	opTimeout time.Duration,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		hub:       hub,
		authSvc:   authSvc,
		game:      game,
		cards:     cards,
		limits:    limits,
		opTimeout: opTimeout,
		log:       log,
	}
}

// ServeWS handles GET /v1/ws?token=...
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateUserToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	conn := h.hub.NewConnection(claims.UserID, claims.Name)
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(h.limits.RateLimit), h.limits.RateBurst)
	user := model.Identity{ID: conn.UserID, Name: conn.Name}

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warnw("websocket read failed", "user", conn.UserID, "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.report(user, "", fmt.Errorf("%w: %v", errBadPayload, err))
			continue
		}
		if !limiter.Allow() {
			h.report(user, msg.Type, errRateLimited)
			continue
		}

		if err := h.dispatch(user, &msg); err != nil {
			h.report(user, msg.Type, err)
		}
	}
}

// dispatch runs one client event to completion.
func (h *Handler) dispatch(user model.Identity, msg *Message) error {
	var req request
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("%w: %v", errBadPayload, err)
		}
	}
	if msg.Type != MsgJoinGame && req.GameSessionID == "" {
		return fmt.Errorf("%w: gameSessionId is required", errBadPayload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()

	switch msg.Type {
	case MsgJoinGame:
		_, err := h.game.Join(ctx, user, req.BidAmount)
		return err
	case MsgReadyUp, MsgStartCountDown:
		return h.game.Ready(ctx, user, req.GameSessionID)
	case MsgGameStart:
		_, err := h.game.GameStart(ctx, user, req.GameSessionID)
		return err
	case MsgReserveCard:
		return h.cards.Reserve(ctx, user.ID, req.GameSessionID, req.CardNumber)
	case MsgUnreserveCard:
		return h.cards.Unreserve(ctx, user.ID, req.GameSessionID, req.CardNumber)
	case MsgReserveCards:
		return h.cards.ReserveMany(ctx, user.ID, req.GameSessionID, req.CardNumbers)
	case MsgUnreserveCards:
		return h.cards.UnreserveMany(ctx, user.ID, req.GameSessionID, req.CardNumbers)
	case MsgGameEnd:
		return h.game.Claim(ctx, user, req.GameSessionID, req.CardNumber, req.MarkedNumbers)
	default:
		return fmt.Errorf("%w: unknown type %q", errBadPayload, msg.Type)
	}
}

// report logs a failed event and tells the sender what it is allowed to
// know about it.
func (h *Handler) report(user model.Identity, event MessageType, err error) {
	switch {
	case service.IsSilent(err):
		h.log.Infow("request ignored", "user", user.ID, "event", event, "reason", err)
	case service.IsRejected(err), errors.Is(err, errBadPayload), errors.Is(err, errRateLimited):
		h.log.Debugw("request rejected", "user", user.ID, "event", event, "reason", err)
		h.hub.BroadcastToPlayer(user.ID, string(MsgError), service.ErrorPayload{Event: string(event), Message: err.Error()})
	default:
		h.log.Errorw("request failed", "user", user.ID, "event", event, "error", err)
		h.hub.BroadcastToPlayer(user.ID, string(MsgError), service.ErrorPayload{Event: string(event), Message: genericFailure})
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
