package handlers

import (
	"context"

	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/stretchr/testify/mock"
)

// MockTripService implements TripServiceInterface for handler tests.
type MockTripService struct {
	mock.Mock
}

var _ TripServiceInterface = (*MockTripService)(nil)

func (m *MockTripService) LoadTrip(ctx context.Context, id string) (*types.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripService) LoadByShareCode(ctx context.Context, code string) (*types.Trip, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripService) CreateTrip(ctx context.Context, req types.TripCreateRequest, organizerID string) (*types.Trip, error) {
	args := m.Called(ctx, req, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripService) ClaimTrip(ctx context.Context, id, userID string) (*types.Trip, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripService) MarkPaid(ctx context.Context, id, name string) (*types.Trip, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripService) EditTrip(ctx context.Context, id, userID string, req types.TripEditRequest) (*types.Trip, error) {
	args := m.Called(ctx, id, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripService) SendShareEmail(ctx context.Context, id, userID, senderName, to string) error {
	args := m.Called(ctx, id, userID, senderName, to)
	return args.Error(0)
}

type MockItineraryTrigger struct {
	mock.Mock
}

var _ ItineraryTrigger = (*MockItineraryTrigger)(nil)

func (m *MockItineraryTrigger) Trigger(ctx context.Context, tripID string) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

type MockActivityService struct {
	mock.Mock
}

var _ ActivityServiceInterface = (*MockActivityService)(nil)

func (m *MockActivityService) AddActivity(ctx context.Context, tripID, userID string, day, index int, act types.Activity) (*types.Trip, error) {
	args := m.Called(ctx, tripID, userID, day, index, act)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockActivityService) RemoveActivity(ctx context.Context, tripID, userID string, day, index int) (*types.Trip, error) {
	args := m.Called(ctx, tripID, userID, day, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

type MockReactionService struct {
	mock.Mock
}

var _ ReactionServiceInterface = (*MockReactionService)(nil)

func (m *MockReactionService) LoadReactions(ctx context.Context, tripID, viewerID string) (reactions.Aggregates, error) {
	args := m.Called(ctx, tripID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(reactions.Aggregates), args.Error(1)
}

func (m *MockReactionService) React(ctx context.Context, tripID, viewerID string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error) {
	args := m.Called(ctx, tripID, viewerID, key, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(reactions.Aggregates), args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) types.HealthCheck {
	args := m.Called(ctx)
	return args.Get(0).(types.HealthCheck)
}
