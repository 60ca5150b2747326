// Package websocket fans the per-trip change feed out to browser
// connections. One connection watches one trip; viewers need not be signed in.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

var activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "tripsync_ws_connections",
	Help: "Open change feed WebSocket connections",
})

// EventSubscriber is the subscribe half of the change feed.
type EventSubscriber interface {
	Subscribe(ctx context.Context, tripID string, subscriberID string, filters ...types.EventType) (<-chan types.Event, error)
	Unsubscribe(ctx context.Context, tripID string, subscriberID string) error
}

// Message types on the wire.
const (
	MessageTypeSnapshot = "snapshot"
	MessageTypeReaction = "reaction"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeError    = "error"
)

// ServerMessage is every frame the server sends.
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ClientMessage is every frame a client may send.
type ClientMessage struct {
	Type string `json:"type"`
}

// ReactionChange is the payload of a reaction message.
type ReactionChange struct {
	Op       string         `json:"op"` // "insert" or "delete"
	Reaction types.Reaction `json:"reaction"`
}

// MessageFromEvent converts a feed event to its wire frame. Events the client
// has no use for report ok=false.
func MessageFromEvent(event types.Event) (ServerMessage, bool) {
	switch event.Type {
	case types.EventTypeTripUpdated:
		return ServerMessage{Type: MessageTypeSnapshot, Payload: json.RawMessage(event.Payload)}, true
	case types.EventTypeReactionInserted, types.EventTypeReactionDeleted:
		row, err := event.ReactionRow()
		if err != nil {
			return ServerMessage{}, false
		}
		op := "insert"
		if event.Type == types.EventTypeReactionDeleted {
			op = "delete"
		}
		return ServerMessage{Type: MessageTypeReaction, Payload: ReactionChange{Op: op, Reaction: *row}}, true
	default:
		return ServerMessage{}, false
	}
}

type Hub struct {
	log          *zap.SugaredLogger
	feed         EventSubscriber
	connections  map[string]*Connection // connection id -> connection
	mu           sync.RWMutex
	shutdownOnce sync.Once
	config       HubConfig
}

// Connection is one browser tab watching one trip.
type Connection struct {
	ID       string
	TripID   string
	ViewerID string // empty for anonymous viewers
	Conn     *websocket.Conn

	sendCh chan ServerMessage
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

type HubConfig struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   64,
	}
}

func NewHub(feed EventSubscriber, cfg ...HubConfig) *Hub {
	config := DefaultHubConfig()
	if len(cfg) > 0 {
		config = cfg[0]
	}
	return &Hub{
		log:         logger.GetLogger().Named("websocket_hub"),
		feed:        feed,
		connections: make(map[string]*Connection),
		config:      config,
	}
}

// Register subscribes a new connection to tripID's feed.
func (h *Hub) Register(ctx context.Context, tripID, viewerID string, conn *websocket.Conn) (*Connection, error) {
	connection := &Connection{
		ID:       uuid.NewString(),
		TripID:   tripID,
		ViewerID: viewerID,
		Conn:     conn,
		sendCh:   make(chan ServerMessage, h.config.SendBuffer),
	}

	events, err := h.feed.Subscribe(ctx, tripID, connection.ID)
	if err != nil {
		h.log.Errorw("Failed to subscribe connection", "tripID", tripID, "error", err)
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	connection.cancel = cancel

	h.mu.Lock()
	h.connections[connection.ID] = connection
	h.mu.Unlock()
	activeConnections.Inc()

	go h.forward(subCtx, connection, events)

	h.log.Infow("WebSocket connection registered", "connID", connection.ID, "tripID", tripID, "anonymous", viewerID == "")
	return connection, nil
}

// forward turns feed events into frames on the connection's send buffer.
func (h *Hub) forward(ctx context.Context, conn *Connection, events <-chan types.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			msg, ok := MessageFromEvent(event)
			if !ok {
				continue
			}
			if !conn.enqueue(msg) {
				h.log.Warnw("Connection send buffer full, dropping event", "connID", conn.ID, "tripID", conn.TripID, "eventType", event.Type)
			}
		}
	}
}

// enqueue reports false when the frame was dropped.
func (c *Connection) enqueue(msg ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.sendCh <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	conn, ok := h.connections[connID]
	if ok {
		delete(h.connections, connID)
	}
	h.mu.Unlock()

	if ok {
		h.closeConnection(conn, "unregistered")
	}
}

func (h *Hub) closeConnection(conn *Connection, reason string) {
	conn.mu.Lock()
	if conn.closed {
		conn.mu.Unlock()
		return
	}
	conn.closed = true
	close(conn.sendCh)
	conn.mu.Unlock()

	conn.cancel()
	if err := h.feed.Unsubscribe(context.Background(), conn.TripID, conn.ID); err != nil {
		h.log.Debugw("Unsubscribe on close", "connID", conn.ID, "error", err)
	}
	if conn.Conn != nil {
		_ = conn.Conn.Close(websocket.StatusNormalClosure, reason)
	}
	activeConnections.Dec()

	h.log.Infow("WebSocket connection closed", "connID", conn.ID, "tripID", conn.TripID, "reason", reason)
}

func (h *Hub) GetConnection(connID string) (*Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.connections[connID]
	return conn, ok
}

// ConnectionsForTrip counts viewers of tripID on this instance.
func (h *Hub) ConnectionsForTrip(tripID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.connections {
		if c.TripID == tripID {
			n++
		}
	}
	return n
}

func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.mu.Lock()
		connections := make([]*Connection, 0, len(h.connections))
		for _, conn := range h.connections {
			connections = append(connections, conn)
		}
		h.connections = make(map[string]*Connection)
		h.mu.Unlock()

		for _, conn := range connections {
			h.closeConnection(conn, "server shutdown")
		}
	})
	h.log.Info("WebSocket hub shutdown complete")
	return nil
}

// SendChannel yields outbound frames until the connection closes.
func (c *Connection) SendChannel() <-chan ServerMessage {
	return c.sendCh
}

func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
