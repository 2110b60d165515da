package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"surveyassist/internal/service"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Monitor message types, mirroring the service events
const (
	MsgSessionStarted    MessageType = "session_started"
	MsgAnswerRecorded    MessageType = "answer_recorded"
	MsgConsentRecorded   MessageType = "consent_recorded"
	MsgFollowupPresented MessageType = "followup_presented"
	MsgGatewayFailed     MessageType = "gateway_failed"
	MsgSessionCompleted  MessageType = "session_completed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans session events out to connected operator monitors
type Hub struct {
	monitors map[*Connection]bool

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once

	logger *slog.Logger
}

// Connection is one operator monitor
type Connection struct {
	OperatorID string
	SessionID  string // only events for this session when set
	Send       chan []byte
	Hub        *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		monitors:   make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for conn := range h.monitors {
				delete(h.monitors, conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.monitors[conn] = true
			h.mu.Unlock()
			h.logger.Info("monitor connected", "operator_id", conn.OperatorID, "session_id", conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.monitors[conn] {
				delete(h.monitors, conn)
				close(conn.Send)
				h.logger.Info("monitor disconnected", "operator_id", conn.OperatorID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Error("failed to encode monitor message", "err", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.monitors {
				if conn.SessionID != "" && conn.SessionID != msg.SessionID {
					continue
				}
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Count returns the number of connected monitors
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.monitors)
}

// Close disconnects every monitor and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// BroadcastToMonitors queues an event for every interested monitor (implements service.Broadcaster).
// Events are dropped rather than blocking the caller when the queue is full.
func (h *Hub) BroadcastToMonitors(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode monitor payload", "type", msgType, "err", err)
		return
	}
	var sessionID string
	if scoped, ok := payload.(service.SessionScoped); ok {
		sessionID = scoped.EventSessionID()
	}

	msg := &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("monitor queue full, dropping event", "type", msgType)
	}
}
