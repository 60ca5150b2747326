package websocket

import (
	"context"
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/middleware"
	"github.com/NomadCrew/tripsync-backend/pkg/sharecode"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// TripResolver finds the trip a connection asks for.
type TripResolver interface {
	LoadTrip(ctx context.Context, id string) (*types.Trip, error)
	LoadByShareCode(ctx context.Context, code string) (*types.Trip, error)
}

type Handler struct {
	log            *zap.SugaredLogger
	hub            *Hub
	trips          TripResolver
	pingInterval   time.Duration
	writeTimeout   time.Duration
	allowedOrigins []string
	isDevelopment  bool
}

func NewHandler(hub *Hub, trips TripResolver, serverCfg *config.ServerConfig) *Handler {
	return &Handler{
		log:            logger.GetLogger().Named("websocket_handler"),
		hub:            hub,
		trips:          trips,
		pingInterval:   hub.config.PingInterval,
		writeTimeout:   hub.config.WriteTimeout,
		allowedOrigins: serverCfg.AllowedOrigins,
		isDevelopment:  serverCfg.Environment == config.EnvDevelopment,
	}
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	if h.isDevelopment {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = h.allowedOrigins
	}
	return opts
}

func (h *Handler) resolve(c *gin.Context) (*types.Trip, error) {
	ctx := c.Request.Context()
	if id := c.Query("trip"); id != "" {
		return h.trips.LoadTrip(ctx, id)
	}
	if code := c.Query("share"); code != "" {
		code = sharecode.Normalize(code)
		if !sharecode.Valid(code) {
			return nil, apperrors.TripNotFound(code)
		}
		return h.trips.LoadByShareCode(ctx, code)
	}
	return nil, apperrors.ValidationFailed("missing trip", "pass trip=<id> or share=<code>")
}

// HandleWebSocket godoc
// @Summary Watch a trip
// @Description Upgrades to a WebSocket streaming snapshot and reaction frames for one trip. Anonymous viewers are allowed.
// @Tags realtime
// @Param trip query string false "Trip ID"
// @Param share query string false "Share code"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} types.StandardResponse
// @Failure 404 {object} types.StandardResponse
// @Router /ws [get]
func (h *Handler) HandleWebSocket(c *gin.Context) {
	trip, err := h.resolve(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	viewerID := middleware.ViewerID(c)

	conn, err := websocket.Accept(c.Writer, c.Request, h.acceptOptions())
	if err != nil {
		h.log.Warnw("Failed to accept WebSocket connection", "tripID", trip.ID, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	connection, err := h.hub.Register(ctx, trip.ID, viewerID, conn)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}
	defer h.hub.Unregister(connection.ID)

	// The first frame is the trip as loaded; everything after comes off the feed.
	if err := h.send(ctx, conn, ServerMessage{Type: MessageTypeSnapshot, Payload: trip}); err != nil {
		return
	}

	errCh := make(chan error, 3)
	go func() { errCh <- h.readLoop(ctx, conn, connection) }()
	go func() { errCh <- h.writeLoop(ctx, conn, connection) }()
	go func() { errCh <- h.pingLoop(ctx, conn) }()

	err = <-errCh
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure && websocket.CloseStatus(err) != websocket.StatusGoingAway {
		h.log.Debugw("WebSocket connection ended", "connID", connection.ID, "error", err)
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, connection *Connection) error {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}
		switch msg.Type {
		case MessageTypePing:
			if !connection.enqueue(ServerMessage{Type: MessageTypePong}) {
				h.log.Warnw("Dropped pong, send buffer full", "connID", connection.ID)
			}
		default:
			connection.enqueue(ServerMessage{Type: MessageTypeError, Error: "unknown message type " + msg.Type})
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, connection *Connection) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-connection.SendChannel():
			if !ok {
				return nil
			}
			if err := h.send(ctx, conn, msg); err != nil {
				return err
			}
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, msg)
}
