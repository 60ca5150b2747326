package types

import "time"

// StandardResponse is the envelope for every API response. Failures never
// carry Data and always carry Error.
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information
type ErrorInfo struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// TripView is what the trip endpoints return: the snapshot plus the
// countdown the client renders.
type TripView struct {
	Trip                 *Trip `json:"trip"`
	LinkRemainingSeconds int64 `json:"link_remaining_seconds"`
	Expired              bool  `json:"expired"`
}

// NewTripView builds a TripView as of now.
func NewTripView(t *Trip, now time.Time) TripView {
	return TripView{
		Trip:                 t,
		LinkRemainingSeconds: int64(t.LinkRemaining(now) / time.Second),
		Expired:              t.IsExpired(now),
	}
}
