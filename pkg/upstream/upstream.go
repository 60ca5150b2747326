// Package upstream holds the HTTP plumbing shared by the pricing search and
// itinerary generator clients: JSON round trips, status classification and
// call metrics.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsync_upstream_calls_total",
		Help: "Upstream calls by service and outcome",
	}, []string{"service", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripsync_upstream_call_duration_seconds",
		Help:    "Upstream call latency",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"service"})
)

// Caller performs JSON POSTs against one upstream service.
type Caller struct {
	Service    string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewCaller returns a Caller with its own client and timeout.
func NewCaller(service, baseURL, apiKey string, timeout time.Duration) *Caller {
	return &Caller{
		Service:    service,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// PostJSON sends in to BaseURL+path and decodes a 2xx body into out.
// Failures come back as *errors.AppError of type UpstreamError.
func (c *Caller) PostJSON(ctx context.Context, path string, in, out interface{}) error {
	if c.BaseURL == "" {
		return apperrors.NotConfigured(c.Service)
	}

	start := time.Now()
	defer func() { callDuration.WithLabelValues(c.Service).Observe(time.Since(start).Seconds()) }()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.Service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.Service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		callsTotal.WithLabelValues(c.Service, "transport").Inc()
		return apperrors.Upstream(c.Service, apperrors.CodeUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		callsTotal.WithLabelValues(c.Service, "transport").Inc()
		return apperrors.Upstream(c.Service, apperrors.CodeUpstreamFailure, err)
	}

	if err := Classify(c.Service, resp.StatusCode, body); err != nil {
		callsTotal.WithLabelValues(c.Service, outcomeOf(err)).Inc()
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		callsTotal.WithLabelValues(c.Service, "malformed").Inc()
		return Malformed(c.Service, err)
	}
	callsTotal.WithLabelValues(c.Service, "ok").Inc()
	return nil
}

// Classify maps a response status to a typed failure, or nil for 2xx.
// 429 is rate limiting unless the body talks about quota; 402 is always quota.
func Classify(service string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	cause := fmt.Errorf("status %d: %s", status, snippet(body))
	switch {
	case status == http.StatusPaymentRequired:
		return apperrors.Upstream(service, apperrors.CodeUpstreamQuotaExceeded, cause)
	case mentionsQuota(body):
		return apperrors.Upstream(service, apperrors.CodeUpstreamQuotaExceeded, cause)
	case status == http.StatusTooManyRequests:
		return apperrors.Upstream(service, apperrors.CodeUpstreamRateLimited, cause)
	default:
		return apperrors.Upstream(service, apperrors.CodeUpstreamFailure, cause)
	}
}

// Malformed reports a 2xx body that could not be used.
func Malformed(service string, cause error) error {
	return apperrors.Upstream(service, apperrors.CodeUpstreamMalformed, cause)
}

func mentionsQuota(body []byte) bool {
	b := bytes.ToLower(body)
	return bytes.Contains(b, []byte("quota")) || bytes.Contains(b, []byte("credits"))
}

func snippet(body []byte) string {
	const n = 200
	s := strings.TrimSpace(string(body))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func outcomeOf(err error) string {
	switch {
	case apperrors.HasCode(err, apperrors.CodeUpstreamRateLimited):
		return "rate_limited"
	case apperrors.HasCode(err, apperrors.CodeUpstreamQuotaExceeded):
		return "quota"
	default:
		return "error"
	}
}
