package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxMsgSize    = 1 << 12 // 4 KB
	defaultBuffer = 32
	maxBuffer     = 1024
)

const (
	msgSnapshot = "snapshot"
	msgChange   = "change"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Switch change stream
// @Description  WebSocket. Sends a snapshot of every switch, then one message per change (state, added, removed).
// @Tags         switches
// @Param        buffer        query  int     false  "Per-connection queue size (1-1024)"
// @Param        access_token  query  string  false  "Bearer token when headers cannot be set"
// @Router       /ws [get]
// @Security     BearerAuth
func (h *Handler) wsConnect(c *gin.Context) {
	buffer := parseBuffer(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	// Subscribe before the snapshot so no change falls in between.
	changes, cancel := h.services.Subscribe(buffer)
	defer cancel()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	ctx := c.Request.Context()
	if err := writeJSON(conn, wsEnvelope{Type: msgSnapshot, Data: h.services.Switches.List(ctx)}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if err := writeJSON(conn, wsEnvelope{Type: msgChange, Data: ch}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err, "endpoint_id", ch.EndpointID)
				}
				return
			}
		}
	}
}

// parseBuffer reads ?buffer=N within bounds.
func parseBuffer(c *gin.Context) int {
	if s := c.Query("buffer"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= maxBuffer {
			return n
		}
	}
	return defaultBuffer
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
