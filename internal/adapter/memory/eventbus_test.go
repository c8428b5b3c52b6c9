package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ons3/Pfe-Project-Final/internal/domain/event"
)

func TestEventBus_DeliversByChannel(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	projects := make(chan event.Event, 4)
	cache := make(chan event.Event, 4)
	subP, err := bus.Subscribe(ctx, event.ChannelProjects, func(_ context.Context, e event.Event) { projects <- e })
	require.NoError(t, err)
	defer subP.Unsubscribe()
	subC, err := bus.Subscribe(ctx, event.ChannelCache, func(_ context.Context, e event.Event) { cache <- e })
	require.NoError(t, err)
	defer subC.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, event.New(event.TypeProjectsUpdated, "GetProjects", 3)))
	require.NoError(t, bus.Publish(ctx, event.New(event.TypeCacheCleared, "", 0)))

	select {
	case e := <-projects:
		assert.Equal(t, event.TypeProjectsUpdated, e.Type)
		assert.Equal(t, 3, e.Count)
	case <-time.After(time.Second):
		t.Fatal("projects event not delivered")
	}
	select {
	case e := <-cache:
		assert.Equal(t, event.TypeCacheCleared, e.Type)
	case <-time.After(time.Second):
		t.Fatal("cache event not delivered")
	}
	assert.Empty(t, projects)
}

func TestEventBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	got := make(chan event.Event, 1)
	sub, err := bus.Subscribe(ctx, event.ChannelProjects, func(_ context.Context, e event.Event) { got <- e })
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, event.New(event.TypeProjectsUpdated, "GetProjects", 1)))
	select {
	case <-got:
		t.Fatal("event delivered after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(context.Background(), event.New(event.TypeCacheCleared, "", 0)))
}
