package handlers

import (
	"net/http"
	"testing"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAddActivityHandler(t *testing.T) {
	act := types.Activity{Time: "15:00", Title: "Tram 28", Description: "Ride across the old town", Type: types.ActivityTypeTravel}

	t.Run("inserted", func(t *testing.T) {
		svc := new(MockActivityService)
		h := NewActivityHandler(svc)
		svc.On("AddActivity", mock.Anything, testTripID, testUserID, 2, 1, act).Return(sampleTrip(), nil)

		w := doRequest(buildRouter(http.MethodPost, "/trips/:id/itinerary/days/:day/activities", h.AddActivityHandler, testUserID),
			http.MethodPost, "/trips/"+testTripID+"/itinerary/days/2/activities",
			map[string]interface{}{"index": 1, "activity": act})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("index zero is allowed", func(t *testing.T) {
		svc := new(MockActivityService)
		h := NewActivityHandler(svc)
		svc.On("AddActivity", mock.Anything, testTripID, testUserID, 1, 0, act).Return(sampleTrip(), nil)

		w := doRequest(buildRouter(http.MethodPost, "/trips/:id/itinerary/days/:day/activities", h.AddActivityHandler, testUserID),
			http.MethodPost, "/trips/"+testTripID+"/itinerary/days/1/activities",
			map[string]interface{}{"index": 0, "activity": act})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("bad day", func(t *testing.T) {
		svc := new(MockActivityService)
		h := NewActivityHandler(svc)

		w := doRequest(buildRouter(http.MethodPost, "/trips/:id/itinerary/days/:day/activities", h.AddActivityHandler, testUserID),
			http.MethodPost, "/trips/"+testTripID+"/itinerary/days/two/activities",
			map[string]interface{}{"index": 0, "activity": act})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddActivity", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not everyone paid", func(t *testing.T) {
		svc := new(MockActivityService)
		h := NewActivityHandler(svc)
		svc.On("AddActivity", mock.Anything, testTripID, testUserID, 1, 0, act).
			Return(nil, apperrors.NewConflictError("Not everyone has paid", "").WithCode(apperrors.CodeNotAllPaid))

		w := doRequest(buildRouter(http.MethodPost, "/trips/:id/itinerary/days/:day/activities", h.AddActivityHandler, testUserID),
			http.MethodPost, "/trips/"+testTripID+"/itinerary/days/1/activities",
			map[string]interface{}{"index": 0, "activity": act})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.CodeNotAllPaid, decodeError(t, w).Code)
	})
}

func TestRemoveActivityHandler(t *testing.T) {
	svc := new(MockActivityService)
	h := NewActivityHandler(svc)
	r := buildRouter(http.MethodDelete, "/trips/:id/itinerary/days/:day/activities/:index", h.RemoveActivityHandler, testUserID)

	svc.On("RemoveActivity", mock.Anything, testTripID, testUserID, 3, 2).Return(sampleTrip(), nil)
	w := doRequest(r, http.MethodDelete, "/trips/"+testTripID+"/itinerary/days/3/activities/2", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodDelete, "/trips/"+testTripID+"/itinerary/days/3/activities/-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "RemoveActivity", 1)
}
