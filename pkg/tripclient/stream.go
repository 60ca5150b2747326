package tripclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/tripsync"
	"github.com/NomadCrew/tripsync-backend/types"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	frameSnapshot = "snapshot"
	frameReaction = "reaction"
	frameError    = "error"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}

// wsURL turns the API base into the change feed URL for tripID.
func (c *Client) wsURL(tripID string) (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("trip", tripID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Watch dials the change feed. The first frame the server sends is the
// current snapshot.
func (c *Client) Watch(ctx context.Context, tripID string) (tripsync.Stream, error) {
	target, err := c.wsURL(tripID)
	if err != nil {
		return nil, err
	}
	opts := &websocket.DialOptions{}
	if c.token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + c.token}}
	}

	conn, resp, err := websocket.Dial(ctx, target, opts)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &wsStream{
		conn:    conn,
		tripID:  tripID,
		cancel:  cancel,
		updates: make(chan tripsync.Update, 16),
	}
	go s.run(ctx)
	return s, nil
}

type wsStream struct {
	conn    *websocket.Conn
	tripID  string
	cancel  context.CancelFunc
	updates chan tripsync.Update
	once    sync.Once
}

func (s *wsStream) Updates() <-chan tripsync.Update {
	return s.updates
}

func (s *wsStream) run(ctx context.Context) {
	log := logger.GetLogger().Named("tripclient")
	defer close(s.updates)
	defer s.conn.Close(websocket.StatusNormalClosure, "")

	for {
		var f frame
		if err := wsjson.Read(ctx, s.conn, &f); err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Infow("Change feed closed", "tripID", s.tripID, "error", err)
			}
			return
		}

		var u tripsync.Update
		switch f.Type {
		case frameSnapshot:
			var trip types.Trip
			if err := json.Unmarshal(f.Payload, &trip); err != nil {
				log.Warnw("Dropping undecodable snapshot frame", "tripID", s.tripID, "error", err)
				continue
			}
			u.Trip = &trip
		case frameReaction:
			u.ReactionChanged = true
		case frameError:
			log.Warnw("Change feed reported an error", "tripID", s.tripID, "error", f.Error)
			continue
		default:
			if !strings.EqualFold(f.Type, "pong") {
				log.Debugw("Ignoring frame", "tripID", s.tripID, "type", f.Type)
			}
			continue
		}

		select {
		case s.updates <- u:
		case <-ctx.Done():
			return
		}
	}
}

func (s *wsStream) Close() error {
	s.once.Do(s.cancel)
	return nil
}
