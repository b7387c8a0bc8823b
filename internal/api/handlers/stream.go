package handlers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/tradelens/backend/internal/auth"
	"github.com/wonny/tradelens/backend/internal/journal"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Timing
const (
	PingInterval = 30 * time.Second
	pongWait     = PingInterval + 10*time.Second
	writeWait    = 10 * time.Second
)

// PositionSource values a user's open positions
type PositionSource interface {
	ActivePositions(ctx context.Context, userID string) (journal.ActiveSummary, error)
}

// Authenticator resolves an Authorization header to an identity
type Authenticator interface {
	Authenticate(header string) (auth.Identity, error)
}

// StreamMessage is one frame pushed to the client
type StreamMessage struct {
	Type      string                 `json:"type"` // positions, error
	Data      *journal.ActiveSummary `json:"data,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// StreamHandler pushes live position snapshots over a websocket
type StreamHandler struct {
	positions PositionSource
	auth      Authenticator
	interval  time.Duration
	upgrader  websocket.Upgrader
	logger    *logger.Logger
}

// NewStreamHandler creates the handler; a snapshot is pushed every interval
// allowedOrigins empty or containing "*" accepts any origin
func NewStreamHandler(positions PositionSource, authn Authenticator, interval time.Duration, allowedOrigins []string, log *logger.Logger) *StreamHandler {
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &StreamHandler{
		positions: positions,
		auth:      authn,
		interval:  interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: log.WithField("handler", "stream"),
	}
}

// Positions upgrades to a websocket and streams active positions until the client leaves
// GET /ws/positions?token=...
func (h *StreamHandler) Positions(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			header = "Bearer " + token
		}
	}
	id, err := h.auth.Authenticate(header)
	if err != nil {
		respondAppError(w, h.logger, err, auth.MsgInvalid)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade가 이미 에러 응답을 씀
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.logger.WithField("user_id", id.UserID)
	log.Info("Position stream opened")

	done := make(chan struct{})
	go h.readLoop(conn, done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	pinger := time.NewTicker(PingInterval)
	defer pinger.Stop()

	ctx := r.Context()
	if !h.push(ctx, conn, id.UserID) {
		return
	}
	for {
		select {
		case <-done:
			log.Info("Position stream closed")
			return
		case <-ticker.C:
			if !h.push(ctx, conn, id.UserID) {
				return
			}
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Debug("Ping failed")
				return
			}
		}
	}
}

// push writes one snapshot; false means the connection is gone
func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn, uid string) bool {
	msg := StreamMessage{Type: "positions", Timestamp: time.Now().UTC()}

	summary, err := h.positions.ActivePositions(ctx, uid)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", uid).Warn("Failed to value positions for stream")
		msg.Type = "error"
		msg.Error = "Failed to fetch active positions"
	} else {
		msg.Data = &summary
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.WithError(err).Debug("Stream write failed")
		return false
	}
	return true
}

// readLoop drains client frames so pongs and close frames are processed
func (h *StreamHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).Debug("Stream read ended")
			}
			return
		}
	}
}
