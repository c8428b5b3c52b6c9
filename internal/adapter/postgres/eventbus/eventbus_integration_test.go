//go:build integration

package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgeventbus "github.com/ons3/Pfe-Project-Final/internal/adapter/postgres/eventbus"
	"github.com/ons3/Pfe-Project-Final/internal/domain/event"
	"github.com/ons3/Pfe-Project-Final/internal/testutil"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	bus := pgeventbus.New(pool)
	ctx := context.Background()

	received := make(chan event.Event, 1)
	sub, err := bus.Subscribe(ctx, event.ChannelProjects, func(_ context.Context, e event.Event) {
		received <- e
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	sent := event.New(event.TypeProjectsUpdated, "GetProjects", 3)
	require.NoError(t, bus.Publish(ctx, sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, event.LocalOrigin, got.Origin)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestEventBus_OtherChannelNotDelivered(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	bus := pgeventbus.New(pool)
	ctx := context.Background()

	received := make(chan event.Event, 1)
	sub, err := bus.Subscribe(ctx, event.ChannelProjects, func(_ context.Context, e event.Event) {
		received <- e
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, event.New(event.TypeCacheCleared, "", 0)))

	select {
	case e := <-received:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(300 * time.Millisecond):
	}
}
