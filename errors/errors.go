package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/NomadCrew/tripsync-backend/logger"
)

type ErrorType string

const (
	ValidationError    ErrorType = "VALIDATION_ERROR"
	NotFoundError      ErrorType = "NOT_FOUND"
	AuthError          ErrorType = "AUTHENTICATION_ERROR"
	ForbiddenError     ErrorType = "FORBIDDEN"
	ConflictError      ErrorType = "CONFLICT"
	DatabaseError      ErrorType = "DATABASE_ERROR"
	UpstreamError      ErrorType = "UPSTREAM_ERROR"
	ConfigurationError ErrorType = "CONFIGURATION_ERROR"
	ServerError        ErrorType = "SERVER_ERROR"
	TooManyRequests    ErrorType = "TOO_MANY_REQUESTS"
)

// Codes carried in AppError.Code. Clients switch on these, not on Message.
const (
	CodeTripNotFound          = "TRIP_NOT_FOUND"
	CodeSignInRequired        = "SIGN_IN_REQUIRED"
	CodeOrganizerOnly         = "ORGANIZER_ONLY"
	CodeLinkExpired           = "LINK_EXPIRED"
	CodeAlreadyClaimed        = "ALREADY_CLAIMED"
	CodeNotAllPaid            = "NOT_ALL_PAID"
	CodeInvalidTransition     = "INVALID_STATUS_TRANSITION"
	CodeUpstreamRateLimited   = "UPSTREAM_RATE_LIMITED"
	CodeUpstreamQuotaExceeded = "UPSTREAM_QUOTA_EXCEEDED"
	CodeUpstreamFailure       = "UPSTREAM_FAILURE"
	CodeUpstreamMalformed     = "UPSTREAM_MALFORMED"
	CodeNotConfigured         = "NOT_CONFIGURED"
	CodeRateLimited           = "RATE_LIMITED"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Raw        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Raw
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// WithCode sets the machine-readable code and returns the receiver.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func NotFound(entity string, id interface{}) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Message:    fmt.Sprintf("%s not found", entity),
		Detail:     fmt.Sprintf("ID: %v", id),
		HTTPStatus: http.StatusNotFound,
	}
}

func TripNotFound(idOrCode string) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Code:       CodeTripNotFound,
		Message:    "Trip not found",
		Detail:     fmt.Sprintf("Trip: %s", idOrCode),
		HTTPStatus: http.StatusNotFound,
	}
}

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(code, message string) *AppError {
	return &AppError{
		Type:       AuthError,
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// SignInRequired rejects a mutating action attempted by an anonymous viewer.
func SignInRequired(action string) *AppError {
	return &AppError{
		Type:       AuthError,
		Code:       CodeSignInRequired,
		Message:    "Sign in required",
		Detail:     fmt.Sprintf("sign in to %s", action),
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string, details string) *AppError {
	return &AppError{
		Type:       ForbiddenError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusForbidden,
	}
}

// OrganizerOnly rejects an organizer-only action taken by someone else.
func OrganizerOnly(action string) *AppError {
	return Forbidden("Only the trip organizer can do this", action).WithCode(CodeOrganizerOnly)
}

// LinkExpired rejects payments on a trip whose share link has lapsed.
func LinkExpired(tripID string) *AppError {
	return &AppError{
		Type:       ConflictError,
		Code:       CodeLinkExpired,
		Message:    "Trip link has expired",
		Detail:     fmt.Sprintf("Trip: %s", tripID),
		HTTPStatus: http.StatusGone,
	}
}

func NewConflictError(message string, detail string) *AppError {
	return &AppError{
		Type:       ConflictError,
		Message:    message,
		Detail:     detail,
		HTTPStatus: http.StatusConflict,
	}
}

func InvalidStatusTransition(current, next string) *AppError {
	return &AppError{
		Type:       ConflictError,
		Code:       CodeInvalidTransition,
		Message:    "Invalid status transition",
		Detail:     fmt.Sprintf("Cannot transition from %s to %s", current, next),
		HTTPStatus: http.StatusConflict,
	}
}

// Upstream wraps a failed pricing, generator or image call. code is one of
// the CodeUpstream* constants.
func Upstream(service, code string, err error) *AppError {
	msg := fmt.Sprintf("%s request failed", service)
	switch code {
	case CodeUpstreamRateLimited:
		msg = fmt.Sprintf("%s is rate limiting requests, try again shortly", service)
	case CodeUpstreamQuotaExceeded:
		msg = fmt.Sprintf("%s quota exceeded", service)
	case CodeUpstreamMalformed:
		msg = fmt.Sprintf("%s returned an unexpected response", service)
	}
	appErr := &AppError{
		Type:       UpstreamError,
		Code:       code,
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
		Raw:        err,
	}
	if err != nil {
		appErr.Detail = err.Error()
	}
	if code == CodeUpstreamRateLimited {
		appErr.HTTPStatus = http.StatusTooManyRequests
	}
	return appErr
}

// NotConfigured reports that an external integration was called without the
// configuration it needs.
func NotConfigured(service string) *AppError {
	return &AppError{
		Type:       ConfigurationError,
		Code:       CodeNotConfigured,
		Message:    fmt.Sprintf("%s is not configured", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// RateLimitExceeded rejects a caller that went over the mutation budget.
func RateLimitExceeded(message string, retryAfterSeconds int) *AppError {
	return &AppError{
		Type:       TooManyRequests,
		Code:       CodeRateLimited,
		Message:    message,
		Detail:     fmt.Sprintf("retry after %ds", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func NewDatabaseError(err error) *AppError {
	logger.GetLogger().Errorw("Database error", "error", err)
	return &AppError{
		Type:       DatabaseError,
		Message:    "Database operation failed",
		Detail:     "Please try again later",
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case ConflictError:
		return http.StatusConflict
	case UpstreamError:
		return http.StatusBadGateway
	case ConfigurationError:
		return http.StatusServiceUnavailable
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
