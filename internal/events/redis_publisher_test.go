package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publishedType matches a PUBLISH whose payload decodes to an event of the
// given type.
func publishedType(channel string, want types.EventType) redismock.CustomMatch {
	return func(expected, actual []interface{}) error {
		if len(actual) != 3 || actual[1] != channel {
			return fmt.Errorf("unexpected publish args %v", actual)
		}
		data, ok := actual[2].([]byte)
		if !ok {
			return fmt.Errorf("payload is %T", actual[2])
		}
		var event types.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return err
		}
		if event.Type != want {
			return fmt.Errorf("published %s, want %s", event.Type, want)
		}
		return nil
	}
}

func TestRedisPublisher_Publish(t *testing.T) {
	resetMetricsForTesting()
	rdb, mock := redismock.NewClientMock()
	publisher := NewRedisPublisher(rdb)

	mock.CustomMatch(publishedType("trip:t1", types.EventTypeTripUpdated)).
		ExpectPublish("trip:t1", nil).SetVal(2)

	err := publisher.Publish(context.Background(), "t1", testEvent(types.EventTypeTripUpdated, "t1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisher_PublishFillsDefaults(t *testing.T) {
	resetMetricsForTesting()
	rdb, mock := redismock.NewClientMock()
	publisher := NewRedisPublisher(rdb)

	mock.CustomMatch(func(_, actual []interface{}) error {
		var event types.Event
		if err := json.Unmarshal(actual[2].([]byte), &event); err != nil {
			return err
		}
		if event.ID == "" || event.Timestamp.IsZero() || event.Version != 1 {
			return fmt.Errorf("defaults not applied: %+v", event.BaseEvent)
		}
		return nil
	}).ExpectPublish("trip:t1", nil).SetVal(0)

	event := types.Event{BaseEvent: types.BaseEvent{Type: types.EventTypeReactionInserted, TripID: "t1"}}
	require.NoError(t, publisher.Publish(context.Background(), "t1", event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisher_PublishInvalidEvent(t *testing.T) {
	resetMetricsForTesting()
	rdb, mock := redismock.NewClientMock()
	publisher := NewRedisPublisher(rdb)

	err := publisher.Publish(context.Background(), "t1", types.Event{BaseEvent: types.BaseEvent{TripID: "t1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisher_PublishRedisError(t *testing.T) {
	resetMetricsForTesting()
	rdb, mock := redismock.NewClientMock()
	publisher := NewRedisPublisher(rdb)

	mock.CustomMatch(publishedType("trip:t1", types.EventTypeTripUpdated)).
		ExpectPublish("trip:t1", nil).SetErr(errors.New("connection refused"))

	err := publisher.Publish(context.Background(), "t1", testEvent(types.EventTypeTripUpdated, "t1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis publish")
}

func TestRedisPublisher_PublishBatch(t *testing.T) {
	resetMetricsForTesting()
	rdb, mock := redismock.NewClientMock()
	publisher := NewRedisPublisher(rdb)

	mock.CustomMatch(publishedType("trip:t1", types.EventTypeReactionDeleted)).
		ExpectPublish("trip:t1", nil).SetVal(1)
	mock.CustomMatch(publishedType("trip:t1", types.EventTypeTripUpdated)).
		ExpectPublish("trip:t1", nil).SetVal(1)

	err := publisher.PublishBatch(context.Background(), "t1", []types.Event{
		testEvent(types.EventTypeReactionDeleted, "t1"),
		testEvent(types.EventTypeTripUpdated, "t1"),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, publisher.PublishBatch(context.Background(), "t1", nil))
}

func TestRedisPublisher_UnsubscribeUnknown(t *testing.T) {
	resetMetricsForTesting()
	rdb, _ := redismock.NewClientMock()
	publisher := NewRedisPublisher(rdb)

	err := publisher.Unsubscribe(context.Background(), "t1", "conn-1")
	assert.Error(t, err)
}

func TestRedisPublisher_PublishAndSubscribe(t *testing.T) {
	resetMetricsForTesting()
	rdb := setupRedisContainer(t)
	ctx := context.Background()

	publisher := NewRedisPublisher(rdb)
	t.Cleanup(func() { _ = publisher.Shutdown(context.Background()) })

	// Two anonymous viewers of the same trip.
	a, err := publisher.Subscribe(ctx, "t1", "conn-a")
	require.NoError(t, err)
	b, err := publisher.Subscribe(ctx, "t1", "conn-b", types.EventTypeTripUpdated)
	require.NoError(t, err)

	_, err = publisher.Subscribe(ctx, "t1", "conn-a")
	assert.Error(t, err, "duplicate subscriber id")

	require.NoError(t, publisher.PublishBatch(ctx, "t1", []types.Event{
		testEvent(types.EventTypeReactionInserted, "t1"),
		testEvent(types.EventTypeTripUpdated, "t1"),
	}))

	for _, want := range []types.EventType{types.EventTypeReactionInserted, types.EventTypeTripUpdated} {
		select {
		case got := <-a:
			assert.Equal(t, want, got.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}

	select {
	case got := <-b:
		assert.Equal(t, types.EventTypeTripUpdated, got.Type, "filtered subscriber sees only snapshots")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for filtered event")
	}

	require.NoError(t, publisher.Unsubscribe(ctx, "t1", "conn-a"))
	select {
	case _, ok := <-a:
		assert.False(t, ok, "channel closes after unsubscribe")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestRedisPublisher_ShutdownClosesSubscriptions(t *testing.T) {
	resetMetricsForTesting()
	rdb := setupRedisContainer(t)
	ctx := context.Background()

	publisher := NewRedisPublisher(rdb)
	ch, err := publisher.Subscribe(ctx, "t1", "conn-a")
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, publisher.Shutdown(shutdownCtx))

	_, ok := <-ch
	assert.False(t, ok)
}
