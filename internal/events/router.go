package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type RouterMetrics struct {
	handlerCount    prometheus.Gauge
	handlerLatency  prometheus.Histogram
	handlerErrors   *prometheus.CounterVec
	eventsRouted    *prometheus.CounterVec
	eventsDiscarded *prometheus.CounterVec
}

var (
	routerMetricsOnce   sync.Once
	globalRouterMetrics *RouterMetrics
)

func getRouterMetrics() *RouterMetrics {
	routerMetricsOnce.Do(func() {
		globalRouterMetrics = &RouterMetrics{
			handlerCount: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "tripsync_event_handlers",
				Help: "Registered local event handlers",
			}),
			handlerLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "tripsync_event_handler_duration_seconds",
				Help:    "Time taken by local event handlers",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}),
			handlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tripsync_event_handler_errors_total",
				Help: "Local handler errors by event type",
			}, []string{"event_type"}),
			eventsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tripsync_events_routed_total",
				Help: "Events routed to local handlers by type",
			}, []string{"event_type"}),
			eventsDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tripsync_events_discarded_total",
				Help: "Events with no local handler, by reason",
			}, []string{"reason"}),
		}
	})
	return globalRouterMetrics
}

// Router dispatches events to in-process handlers on the instance that made
// the write, before the event goes out on the shared feed.
type Router struct {
	log      *zap.SugaredLogger
	metrics  *RouterMetrics
	mu       sync.RWMutex
	handlers map[types.EventType][]types.EventHandler
}

func NewRouter() *Router {
	return &Router{
		log:      logger.GetLogger().Named("event_router"),
		metrics:  getRouterMetrics(),
		handlers: make(map[types.EventType][]types.EventHandler),
	}
}

func (r *Router) RegisterHandler(handler types.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	supported := handler.SupportedEvents()
	if len(supported) == 0 {
		r.log.Warnw("Handler registered with no supported events", "handler", fmt.Sprintf("%T", handler))
		return
	}
	for _, eventType := range supported {
		r.handlers[eventType] = append(r.handlers[eventType], handler)
	}
	r.metrics.handlerCount.Set(float64(r.countHandlers()))
}

func (r *Router) UnregisterHandler(handler types.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eventType := range handler.SupportedEvents() {
		handlers := r.handlers[eventType]
		for i, h := range handlers {
			if h == handler {
				r.handlers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
				break
			}
		}
		if len(r.handlers[eventType]) == 0 {
			delete(r.handlers, eventType)
		}
	}
	r.metrics.handlerCount.Set(float64(r.countHandlers()))
}

// HandleEvent runs every handler for the event's type concurrently and joins
// their errors.
func (r *Router) HandleEvent(ctx context.Context, event types.Event) error {
	r.mu.RLock()
	handlers := append([]types.EventHandler(nil), r.handlers[event.Type]...)
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.metrics.eventsDiscarded.WithLabelValues("no_handlers").Inc()
		return nil
	}
	r.metrics.eventsRouted.WithLabelValues(string(event.Type)).Inc()

	var wg sync.WaitGroup
	errs := make([]error, len(handlers))
	for i, handler := range handlers {
		wg.Add(1)
		go func(i int, h types.EventHandler) {
			defer wg.Done()
			timer := prometheus.NewTimer(r.metrics.handlerLatency)
			defer timer.ObserveDuration()

			if err := h.HandleEvent(ctx, event); err != nil {
				r.metrics.handlerErrors.WithLabelValues(string(event.Type)).Inc()
				r.log.Errorw("Handler error", "error", err, "eventType", event.Type, "handler", fmt.Sprintf("%T", h))
				errs[i] = fmt.Errorf("handler %T: %w", h, err)
			}
		}(i, handler)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (r *Router) countHandlers() int {
	unique := make(map[types.EventHandler]struct{})
	for _, handlers := range r.handlers {
		for _, h := range handlers {
			unique[h] = struct{}{}
		}
	}
	return len(unique)
}
