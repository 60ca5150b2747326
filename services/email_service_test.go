package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shareTrip() *types.Trip {
	return &types.Trip{
		ID:             "t1",
		ShareCode:      "ABC234",
		Destination:    "Lisbon",
		DepartureDate:  time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		ReturnDate:     time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC),
		TotalPerPerson: decimal.NewFromInt(640),
	}
}

// resendStub answers POST /emails the way the Resend API does.
func resendStub(t *testing.T, status int, got *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"id":"email-1"}`))
		} else {
			_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmailService(t *testing.T, srv *httptest.Server) *EmailService {
	t.Helper()
	svc := NewEmailService(&config.EmailConfig{
		FromAddress:  "trips@example.com",
		FromName:     "TripSync",
		ResendAPIKey: "re_test_key",
	})
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	svc.client.BaseURL = base
	return svc
}

func TestEmailService_SendShareLink(t *testing.T) {
	var body map[string]interface{}
	svc := newTestEmailService(t, resendStub(t, http.StatusOK, &body))

	err := svc.SendShareLink(context.Background(), ShareEmail{
		To:         "ana@example.com",
		Trip:       shareTrip(),
		ShareURL:   "https://app.example/t/ABC234",
		SenderName: "Marta",
	})
	require.NoError(t, err)

	assert.Equal(t, "TripSync <trips@example.com>", body["from"])
	assert.Equal(t, []interface{}{"ana@example.com"}, body["to"])
	assert.Equal(t, "Your trip to Lisbon", body["subject"])
	html, _ := body["html"].(string)
	assert.Contains(t, html, "https://app.example/t/ABC234")
	assert.Contains(t, html, "ABC234")
	assert.Contains(t, html, "Marta shared a trip")
	assert.Contains(t, html, "640 per person")
}

func TestEmailService_UpstreamFailure(t *testing.T) {
	svc := newTestEmailService(t, resendStub(t, http.StatusUnprocessableEntity, nil))

	err := svc.SendShareLink(context.Background(), ShareEmail{To: "ana@example.com", Trip: shareTrip(), ShareURL: "https://x"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamFailure))
}

func TestEmailService_Rejections(t *testing.T) {
	unconfigured := NewEmailService(&config.EmailConfig{})
	err := unconfigured.SendShareLink(context.Background(), ShareEmail{To: "ana@example.com", Trip: shareTrip(), ShareURL: "https://x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotConfigured))

	svc := NewEmailService(&config.EmailConfig{ResendAPIKey: "re_test_key"})
	err = svc.SendShareLink(context.Background(), ShareEmail{To: "not-an-address", Trip: shareTrip(), ShareURL: "https://x"})
	assert.True(t, apperrors.IsType(err, apperrors.ValidationError))

	err = svc.SendShareLink(context.Background(), ShareEmail{To: "ana@example.com"})
	assert.True(t, apperrors.IsType(err, apperrors.ValidationError))
}
