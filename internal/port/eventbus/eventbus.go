package eventbus

import (
	"context"

	"github.com/ons3/Pfe-Project-Final/internal/domain/event"
)

type Handler func(ctx context.Context, e event.Event)

type Subscription interface {
	Unsubscribe()
}

// EventBus delivers events to every subscriber of their channel. Channels may
// span instances: on the Postgres bus a subscriber also receives events
// published by peers, so handlers that act on local state check Event.Origin.
type EventBus interface {
	Publish(ctx context.Context, e event.Event) error
	Subscribe(ctx context.Context, ch event.Channel, handler Handler) (Subscription, error)
}
