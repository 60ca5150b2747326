package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher_ScopesByTrip(t *testing.T) {
	m := NewMemoryPublisher(4)
	ctx := context.Background()

	mine, err := m.Subscribe(ctx, "t1", "conn-1")
	require.NoError(t, err)
	other, err := m.Subscribe(ctx, "t2", "conn-2")
	require.NoError(t, err)
	assert.Equal(t, 2, m.SubscriberCount())

	require.NoError(t, m.Publish(ctx, "t1", testEvent(types.EventTypeTripUpdated, "t1")))

	assert.Len(t, mine, 1)
	assert.Len(t, other, 0)
}

func TestMemoryPublisher_Filters(t *testing.T) {
	m := NewMemoryPublisher(4)
	ctx := context.Background()

	ch, err := m.Subscribe(ctx, "t1", "conn-1", types.EventTypeReactionInserted, types.EventTypeReactionDeleted)
	require.NoError(t, err)

	require.NoError(t, m.PublishBatch(ctx, "t1", []types.Event{
		testEvent(types.EventTypeTripUpdated, "t1"),
		testEvent(types.EventTypeReactionInserted, "t1"),
	}))

	require.Len(t, ch, 1)
	assert.Equal(t, types.EventTypeReactionInserted, (<-ch).Type)
}

func TestMemoryPublisher_DropsWhenFull(t *testing.T) {
	m := NewMemoryPublisher(1)
	ctx := context.Background()

	ch, err := m.Subscribe(ctx, "t1", "conn-1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Publish(ctx, "t1", testEvent(types.EventTypeTripUpdated, "t1")))
	}
	assert.Len(t, ch, 1)
	assert.Len(t, m.Published("t1"), 3)
}

func TestMemoryPublisher_Unsubscribe(t *testing.T) {
	m := NewMemoryPublisher(1)
	ctx := context.Background()

	ch, err := m.Subscribe(ctx, "t1", "conn-1")
	require.NoError(t, err)
	_, err = m.Subscribe(ctx, "t1", "conn-1")
	assert.Error(t, err)

	require.NoError(t, m.Unsubscribe(ctx, "t1", "conn-1"))
	_, ok := <-ch
	assert.False(t, ok)
	assert.Error(t, m.Unsubscribe(ctx, "t1", "conn-1"))
}

func TestMemoryPublisher_HistoryIsBounded(t *testing.T) {
	m := NewMemoryPublisher(4, WithHistoryLimit(3))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 10; i++ {
		e := testEvent(types.EventTypeTripUpdated, "t1")
		e.ID = fmt.Sprintf("e%d", i)
		ids = append(ids, e.ID)
		require.NoError(t, m.Publish(ctx, "t1", e))
	}
	require.NoError(t, m.PublishBatch(ctx, "t2", []types.Event{
		testEvent(types.EventTypeTripUpdated, "t2"),
		testEvent(types.EventTypeTripUpdated, "t2"),
		testEvent(types.EventTypeTripUpdated, "t2"),
		testEvent(types.EventTypeTripUpdated, "t2"),
	}))

	got := m.Published("t1")
	require.Len(t, got, 3)
	assert.Equal(t, ids[7:], []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Len(t, m.Published("t2"), 3)
}

func TestMemoryPublisher_HistoryOffStillDelivers(t *testing.T) {
	m := NewMemoryPublisher(4, WithHistoryLimit(0))
	ctx := context.Background()

	ch, err := m.Subscribe(ctx, "t1", "conn-1")
	require.NoError(t, err)
	require.NoError(t, m.Publish(ctx, "t1", testEvent(types.EventTypeTripUpdated, "t1")))

	assert.Len(t, ch, 1)
	assert.Empty(t, m.Published("t1"))
}
