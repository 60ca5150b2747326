package handlers

import (
	"net/http"
	"testing"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMarkPaidHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		setupMock  func(svc *MockTripService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "guest marks self paid",
			body: map[string]string{"traveler": "Ben"},
			setupMock: func(svc *MockTripService) {
				trip := sampleTrip()
				trip.PaidTravelers = []string{"Ben"}
				svc.On("MarkPaid", mock.Anything, testTripID, "Ben").Return(trip, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing traveler",
			body:       map[string]string{},
			setupMock:  func(svc *MockTripService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "link expired",
			body: map[string]string{"traveler": "Ben"},
			setupMock: func(svc *MockTripService) {
				svc.On("MarkPaid", mock.Anything, testTripID, "Ben").Return(nil, apperrors.LinkExpired(testTripID))
			},
			wantStatus: http.StatusGone,
			wantCode:   apperrors.CodeLinkExpired,
		},
		{
			name: "unknown traveler",
			body: map[string]string{"traveler": "Zed"},
			setupMock: func(svc *MockTripService) {
				svc.On("MarkPaid", mock.Anything, testTripID, "Zed").
					Return(nil, apperrors.ValidationFailed("Unknown traveler", "Zed"))
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTripService)
			tt.setupMock(svc)
			h := NewPaymentHandler(svc)
			r := buildRouter(http.MethodPost, "/trips/:id/payments", h.MarkPaidHandler, "")

			w := doRequest(r, http.MethodPost, "/trips/"+testTripID+"/payments", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				env := decodeTrip(t, w)
				assert.Equal(t, []string{"Ben"}, env.Data.Trip.PaidTravelers)
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
			svc.AssertExpectations(t)
		})
	}
}
