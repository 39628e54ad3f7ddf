package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/mediagrab-go/internal/app"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local service; CORS covers the REST routes
	},
}

// SnapshotMessage is the first message sent on a status stream
type SnapshotMessage struct {
	Type     string             `json:"type"`
	Snapshot app.StatusSnapshot `json:"snapshot"`
}

// StatusWebSocketHandler streams status board events to WebSocket clients
type StatusWebSocketHandler struct {
	board  *app.StatusBoard
	logger *zap.Logger
}

// NewStatusWebSocketHandler creates a new WebSocket handler
func NewStatusWebSocketHandler(board *app.StatusBoard, log *zap.Logger) *StatusWebSocketHandler {
	return &StatusWebSocketHandler{
		board:  board,
		logger: log,
	}
}

// HandleWebSocket handles GET /api/v1/downloads/ws
func (h *StatusWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.board.Subscribe()
	defer unsubscribe()

	h.logger.Debug("WebSocket client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	if err := h.write(conn, SnapshotMessage{Type: "snapshot", Snapshot: h.board.Snapshot()}); err != nil {
		return
	}

	// Read messages from client so close frames and pongs are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, event); err != nil {
				h.logger.Debug("Failed to send status event", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}

		case <-done:
			return

		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *StatusWebSocketHandler) write(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
