// Package tripclient is a tripsync.Backend that talks to a running server
// over its HTTP API and change feed WebSocket.
package tripclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/pkg/tripsync"
	"github.com/NomadCrew/tripsync-backend/types"
)

const maxBodyBytes = 8 << 20

// Client calls the API rooted at BaseURL, e.g. "https://api.example.com/v1".
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ tripsync.Backend = (*Client)(nil)

type Option func(*Client)

// WithToken signs requests as a user. Without one the client is an
// anonymous viewer.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope mirrors types.StandardResponse with a typed payload.
type envelope[T any] struct {
	Success bool             `json:"success"`
	Data    T                `json:"data"`
	Error   *types.ErrorInfo `json:"error"`
}

type reactionsData struct {
	Reactions []types.ReactionEntry `json:"reactions"`
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ServerError, "API request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ServerError, "API response could not be read")
	}

	if resp.StatusCode >= 300 {
		return decodeFailure(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(err, apperrors.ServerError, "API response could not be decoded")
	}
	return nil
}

// decodeFailure rebuilds the server's AppError from a failure envelope so
// callers can match on type and code as if the call were in-process.
func decodeFailure(status int, raw []byte) error {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		appErr := apperrors.New(apperrors.ServerError, http.StatusText(status), strings.TrimSpace(string(raw)))
		appErr.HTTPStatus = status
		return appErr
	}
	appErr := apperrors.New(apperrors.ErrorType(env.Error.Type), env.Error.Message, env.Error.Detail).WithCode(env.Error.Code)
	appErr.HTTPStatus = status
	return appErr
}

func tripPath(tripID string) string {
	return "/trips/" + url.PathEscape(tripID)
}

func (c *Client) tripCall(ctx context.Context, method, path string, in interface{}) (*types.Trip, error) {
	var env envelope[types.TripView]
	if err := c.do(ctx, method, path, in, &env); err != nil {
		return nil, err
	}
	if env.Data.Trip == nil {
		return nil, apperrors.New(apperrors.ServerError, "API response had no trip", path)
	}
	return env.Data.Trip, nil
}

func (c *Client) LoadTrip(ctx context.Context, ref tripsync.Ref) (*types.Trip, error) {
	if ref.TripID != "" {
		return c.tripCall(ctx, http.MethodGet, tripPath(ref.TripID), nil)
	}
	return c.tripCall(ctx, http.MethodGet, "/share/"+url.PathEscape(ref.ShareCode), nil)
}

func (c *Client) LoadReactions(ctx context.Context, tripID string) (reactions.Aggregates, error) {
	var env envelope[reactionsData]
	if err := c.do(ctx, http.MethodGet, tripPath(tripID)+"/reactions", nil, &env); err != nil {
		return nil, err
	}
	return aggregatesFrom(env.Data.Reactions), nil
}

func aggregatesFrom(entries []types.ReactionEntry) reactions.Aggregates {
	agg := make(reactions.Aggregates, len(entries))
	for _, e := range entries {
		agg[e.ActivityKey] = e.ReactionSummary
	}
	return agg
}

func (c *Client) MarkPaid(ctx context.Context, tripID, name string) (*types.Trip, error) {
	return c.tripCall(ctx, http.MethodPost, tripPath(tripID)+"/payments", map[string]string{"traveler": name})
}

func (c *Client) React(ctx context.Context, tripID string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error) {
	index := key.Index
	req := types.ReactRequest{Day: key.Day, Index: &index, Reaction: kind}
	var env envelope[reactionsData]
	if err := c.do(ctx, http.MethodPost, tripPath(tripID)+"/reactions", req, &env); err != nil {
		return nil, err
	}
	return aggregatesFrom(env.Data.Reactions), nil
}

func (c *Client) EditTrip(ctx context.Context, tripID string, req types.TripEditRequest) (*types.Trip, error) {
	return c.tripCall(ctx, http.MethodPatch, tripPath(tripID), req)
}

func (c *Client) AddActivity(ctx context.Context, tripID string, day, index int, act types.Activity) (*types.Trip, error) {
	body := struct {
		Index    int            `json:"index"`
		Activity types.Activity `json:"activity"`
	}{Index: index, Activity: act}
	return c.tripCall(ctx, http.MethodPost, fmt.Sprintf("%s/itinerary/days/%d/activities", tripPath(tripID), day), body)
}

func (c *Client) RemoveActivity(ctx context.Context, tripID string, day, index int) (*types.Trip, error) {
	return c.tripCall(ctx, http.MethodDelete, fmt.Sprintf("%s/itinerary/days/%d/activities/%d", tripPath(tripID), day, index), nil)
}

// TriggerItinerary returns once the server has queued the job (202).
func (c *Client) TriggerItinerary(ctx context.Context, tripID string) error {
	return c.do(ctx, http.MethodPost, tripPath(tripID)+"/itinerary/generate", nil, nil)
}
