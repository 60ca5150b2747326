package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	PublishTimeout   time.Duration
	SubscribeTimeout time.Duration
	EventBufferSize  int
}

func DefaultConfig() Config {
	return Config{
		PublishTimeout:   5 * time.Second,
		SubscribeTimeout: 10 * time.Second,
		EventBufferSize:  100,
	}
}

type metrics struct {
	publishLatency    prometheus.Histogram
	errorCount        *prometheus.CounterVec
	eventCount        *prometheus.CounterVec
	activeSubscribers prometheus.Gauge
}

var (
	metricsInstance *metrics
	metricsOnce     sync.Once
	defaultRegistry = prometheus.DefaultRegisterer
)

func newMetrics() *metrics {
	metricsOnce.Do(func() {
		factory := promauto.With(defaultRegistry)
		metricsInstance = &metrics{
			publishLatency: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "tripsync_event_publish_duration_seconds",
				Help:    "Time taken to publish change feed events",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}),
			errorCount: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "tripsync_event_errors_total",
				Help: "Change feed errors by operation and kind",
			}, []string{"operation", "type"}),
			eventCount: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "tripsync_events_total",
				Help: "Change feed events by operation and event type",
			}, []string{"operation", "type"}),
			activeSubscribers: factory.NewGauge(prometheus.GaugeOpts{
				Name: "tripsync_event_active_subscribers",
				Help: "Open change feed subscriptions",
			}),
		}
	})
	return metricsInstance
}

func resetMetricsForTesting() {
	defaultRegistry = prometheus.NewRegistry()
	metricsInstance = nil
	metricsOnce = sync.Once{}
}

// RedisPublisher is the change feed over Redis pub/sub, so every API instance
// sees writes made through any other.
type RedisPublisher struct {
	rdb     *redis.Client
	log     *zap.SugaredLogger
	metrics *metrics
	config  Config
	mu      sync.RWMutex
	subs    map[string]*subscription
	wg      sync.WaitGroup
}

var _ types.EventPublisher = (*RedisPublisher)(nil)

type subscription struct {
	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *subscription) close(log *zap.SugaredLogger, key string) {
	s.closeOnce.Do(func() {
		if err := s.pubsub.Close(); err != nil {
			log.Errorw("Error closing pubsub", "error", err, "subKey", key)
		}
	})
}

func NewRedisPublisher(rdb *redis.Client, cfg ...Config) *RedisPublisher {
	config := DefaultConfig()
	if len(cfg) > 0 {
		config = cfg[0]
	}
	return &RedisPublisher{
		rdb:     rdb,
		log:     logger.GetLogger().Named("events"),
		metrics: newMetrics(),
		config:  config,
		subs:    make(map[string]*subscription),
	}
}

func (p *RedisPublisher) encode(event *types.Event, op string) ([]byte, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Version == 0 {
		event.Version = 1
	}
	if err := event.Validate(); err != nil {
		p.metrics.errorCount.WithLabelValues(op, "validation").Inc()
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.metrics.errorCount.WithLabelValues(op, "marshal").Inc()
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, tripID string, event types.Event) error {
	start := time.Now()
	defer func() {
		p.metrics.publishLatency.Observe(time.Since(start).Seconds())
	}()

	data, err := p.encode(&event, "publish")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	if err := p.rdb.Publish(ctx, Channel(tripID), data).Err(); err != nil {
		p.metrics.errorCount.WithLabelValues("publish", "redis").Inc()
		return fmt.Errorf("redis publish: %w", err)
	}

	p.metrics.eventCount.WithLabelValues("publish", string(event.Type)).Inc()
	return nil
}

// PublishBatch sends events in order through one pipeline.
func (p *RedisPublisher) PublishBatch(ctx context.Context, tripID string, events []types.Event) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	channel := Channel(tripID)
	pipe := p.rdb.Pipeline()
	for i := range events {
		data, err := p.encode(&events[i], "publish_batch")
		if err != nil {
			return err
		}
		pipe.Publish(ctx, channel, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		p.metrics.errorCount.WithLabelValues("publish_batch", "redis").Inc()
		return fmt.Errorf("execute batch publish: %w", err)
	}

	for _, event := range events {
		p.metrics.eventCount.WithLabelValues("publish", string(event.Type)).Inc()
	}
	return nil
}

func subKey(tripID, subscriberID string) string {
	return tripID + ":" + subscriberID
}

// Subscribe opens a feed for one subscriber. It returns once Redis has
// confirmed the subscription, so anything published afterwards is delivered.
func (p *RedisPublisher) Subscribe(ctx context.Context, tripID string, subscriberID string, filters ...types.EventType) (<-chan types.Event, error) {
	key := subKey(tripID, subscriberID)

	p.mu.RLock()
	_, exists := p.subs[key]
	p.mu.RUnlock()
	if exists {
		p.metrics.errorCount.WithLabelValues("subscribe", "duplicate").Inc()
		return nil, fmt.Errorf("subscription already exists for trip %s and subscriber %s", tripID, subscriberID)
	}

	pubsub := p.rdb.Subscribe(ctx, Channel(tripID))
	confirmCtx, cancelConfirm := context.WithTimeout(ctx, p.config.SubscribeTimeout)
	defer cancelConfirm()
	if _, err := pubsub.Receive(confirmCtx); err != nil {
		_ = pubsub.Close()
		p.metrics.errorCount.WithLabelValues("subscribe", "redis").Inc()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{pubsub: pubsub, cancel: cancel}

	p.mu.Lock()
	if _, exists := p.subs[key]; exists {
		p.mu.Unlock()
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscription already exists for trip %s and subscriber %s", tripID, subscriberID)
	}
	p.subs[key] = sub
	p.mu.Unlock()

	p.metrics.activeSubscribers.Inc()
	events := make(chan types.Event, p.config.EventBufferSize)

	p.wg.Add(1)
	go p.processMessages(subCtx, sub, events, filters, key)

	return events, nil
}

func (p *RedisPublisher) processMessages(ctx context.Context, sub *subscription, events chan<- types.Event, filters []types.EventType, key string) {
	defer p.wg.Done()
	defer func() {
		sub.close(p.log, key)
		close(events)
		p.metrics.activeSubscribers.Dec()
		p.log.Debugw("Subscription closed", "subKey", key)
	}()

	ch := sub.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event types.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				p.metrics.errorCount.WithLabelValues("process", "unmarshal").Inc()
				p.log.Errorw("Failed to unmarshal event", "error", err, "subKey", key)
				continue
			}
			if !matchesFilters(event.Type, filters) {
				continue
			}

			// Slow consumers lose events rather than stall the feed; the next
			// snapshot supersedes whatever was dropped.
			select {
			case events <- event:
				p.metrics.eventCount.WithLabelValues("receive", string(event.Type)).Inc()
			default:
				p.metrics.errorCount.WithLabelValues("process", "channel_full").Inc()
				p.log.Warnw("Dropped event due to full channel", "subKey", key, "eventType", event.Type)
			}
		}
	}
}

func (p *RedisPublisher) Unsubscribe(ctx context.Context, tripID string, subscriberID string) error {
	key := subKey(tripID, subscriberID)

	p.mu.Lock()
	sub, exists := p.subs[key]
	if !exists {
		p.mu.Unlock()
		return fmt.Errorf("no subscription found for trip %s and subscriber %s", tripID, subscriberID)
	}
	delete(p.subs, key)
	p.mu.Unlock()

	sub.cancel()
	sub.close(p.log, key)
	return nil
}

// Shutdown cancels every subscription and waits for their goroutines.
func (p *RedisPublisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	subs := p.subs
	p.subs = make(map[string]*subscription)
	p.mu.Unlock()

	p.log.Infow("Shutting down change feed", "subscriptions", len(subs))
	for _, sub := range subs {
		sub.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
