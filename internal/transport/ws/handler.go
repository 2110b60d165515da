package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"surveyassist/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendQueueSize  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades operator monitor connections
type Handler struct {
	hub     *Hub
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub:     hub,
		authSvc: authSvc,
		logger:  logger,
	}
}

// MonitorWS handles GET /v1/ws/monitor?token=&sessionId=
// Browsers can't set headers on a websocket dial, so the token may come in the query.
func (h *Handler) MonitorWS(w http.ResponseWriter, r *http.Request) {
	token := monitorToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.authSvc.ValidateOperatorToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &monitorClient{
		ws: wsConn,
		sub: &Connection{
			OperatorID: claims.OperatorID,
			SessionID:  r.URL.Query().Get("sessionId"),
			Send:       make(chan []byte, sendQueueSize),
			Hub:        h.hub,
		},
		logger: h.logger.With("operator_id", claims.OperatorID),
	}
	h.hub.Register(client.sub)
	client.logger.Debug("monitor connected", "session_id", client.sub.SessionID)

	go client.forward()
	go client.drain()
}

func monitorToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// monitorClient pairs a websocket with its hub subscription
type monitorClient struct {
	ws     *websocket.Conn
	sub    *Connection
	logger *slog.Logger
}

// drain reads until the peer goes away. Monitors never send anything
// meaningful; reading is what keeps pongs and close frames flowing.
func (c *monitorClient) drain() {
	defer func() {
		c.sub.Hub.Unregister(c.sub)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("monitor read failed", "err", err)
			}
			c.logger.Debug("monitor disconnected")
			return
		}
	}
}

// forward writes hub messages to the socket and keeps it alive with pings
func (c *monitorClient) forward() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.sub.Send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the subscription
				c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("monitor write failed", "err", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
