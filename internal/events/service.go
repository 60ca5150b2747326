package events

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"go.uber.org/zap"
)

// Feed is a publisher that can be shut down.
type Feed interface {
	types.EventPublisher
	Shutdown(ctx context.Context) error
}

// Service is the change feed the rest of the app talks to. Publish runs local
// handlers first, then hands the event to the underlying feed.
type Service struct {
	log      *zap.SugaredLogger
	feed     Feed
	router   *Router
	mu       sync.RWMutex
	handlers map[string]types.EventHandler
}

var _ types.EventPublisher = (*Service)(nil)

func NewService(feed Feed) *Service {
	return &Service{
		log:      logger.GetLogger().Named("event_service"),
		feed:     feed,
		router:   NewRouter(),
		handlers: make(map[string]types.EventHandler),
	}
}

func (s *Service) RegisterHandler(name string, handler types.EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[name]; exists {
		return fmt.Errorf("handler already registered with name %s", name)
	}
	s.handlers[name] = handler
	s.router.RegisterHandler(handler)

	s.log.Infow("Registered event handler", "name", name, "supportedEvents", handler.SupportedEvents())
	return nil
}

func (s *Service) UnregisterHandler(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	handler, exists := s.handlers[name]
	if !exists {
		return fmt.Errorf("handler not found with name %s", name)
	}
	s.router.UnregisterHandler(handler)
	delete(s.handlers, name)
	return nil
}

func (s *Service) Publish(ctx context.Context, tripID string, event types.Event) error {
	if err := s.router.HandleEvent(ctx, event); err != nil {
		// local failures never block the feed
		s.log.Errorw("Error handling event locally", "error", err, "tripID", tripID, "eventType", event.Type)
	}
	return s.feed.Publish(ctx, tripID, event)
}

func (s *Service) PublishBatch(ctx context.Context, tripID string, events []types.Event) error {
	for _, event := range events {
		if err := s.router.HandleEvent(ctx, event); err != nil {
			s.log.Errorw("Error handling event locally in batch", "error", err, "tripID", tripID, "eventType", event.Type)
		}
	}
	return s.feed.PublishBatch(ctx, tripID, events)
}

func (s *Service) Subscribe(ctx context.Context, tripID string, subscriberID string, filters ...types.EventType) (<-chan types.Event, error) {
	return s.feed.Subscribe(ctx, tripID, subscriberID, filters...)
}

func (s *Service) Unsubscribe(ctx context.Context, tripID string, subscriberID string) error {
	return s.feed.Unsubscribe(ctx, tripID, subscriberID)
}

// Shutdown closes the feed and drops every local handler.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.feed.Shutdown(ctx)
	if err != nil {
		s.log.Errorw("Error shutting down feed", "error", err)
	}

	s.mu.Lock()
	for name, handler := range s.handlers {
		s.router.UnregisterHandler(handler)
		delete(s.handlers, name)
	}
	s.mu.Unlock()

	s.log.Info("Event service shutdown complete")
	return err
}

// GetHandlerNames returns registered handler names, sorted.
func (s *Service) GetHandlerNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
