package service_test

import (
	"context"

	"github.com/NomadCrew/tripsync-backend/services"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/stretchr/testify/mock"
)

// MockSearcher is a testify mock for pricing.Searcher.
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, req types.PricingRequest) (*types.PricingResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PricingResult), args.Error(1)
}

// MockGenerator is a testify mock for generator.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req types.GenerationRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

// MockPexels is a testify mock for pexels.ClientInterface.
type MockPexels struct {
	mock.Mock
}

func (m *MockPexels) SearchDestinationImage(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *MockPexels) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	args := m.Called(ctx, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockImageStore is a testify mock for imagestore.Store.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

// MockEmailer is a testify mock for the share email sender.
type MockEmailer struct {
	mock.Mock
}

func (m *MockEmailer) SendShareLink(ctx context.Context, msg services.ShareEmail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockTrigger records detached job triggers.
type MockTrigger struct {
	mock.Mock
}

func (m *MockTrigger) Trigger(ctx context.Context, tripID string) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

// recordingJobs collects submitted jobs instead of running them.
type recordingJobs struct {
	jobs   []services.Job
	refuse bool
}

func (r *recordingJobs) Submit(job services.Job) bool {
	if r.refuse {
		return false
	}
	r.jobs = append(r.jobs, job)
	return true
}
