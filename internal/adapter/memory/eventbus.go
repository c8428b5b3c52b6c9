package memory

import (
	"context"
	"sync"

	"github.com/ons3/Pfe-Project-Final/internal/domain/event"
	porteventbus "github.com/ons3/Pfe-Project-Final/internal/port/eventbus"
)

var _ porteventbus.EventBus = (*EventBus)(nil)

const subscriptionBuffer = 64

// EventBus fans events out to in-process subscribers. Each subscription has
// its own goroutine, so a slow handler never blocks Publish or its peers.
type EventBus struct {
	mu   sync.RWMutex
	subs map[event.Channel]map[*subscription]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[event.Channel]map[*subscription]struct{}),
	}
}

// Publish delivers e to every subscriber of its channel. When a subscriber's
// buffer is full the event is dropped for that subscriber only.
func (eb *EventBus) Publish(_ context.Context, e event.Event) error {
	ch := event.ChannelFor(e.Type)

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for sub := range eb.subs[ch] {
		select {
		case sub.events <- e:
		default:
		}
	}
	return nil
}

// Subscribe invokes handler for every event published on ch until ctx is done
// or the subscription is cancelled.
func (eb *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		events: make(chan event.Event, subscriptionBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	eb.mu.Lock()
	if eb.subs[ch] == nil {
		eb.subs[ch] = make(map[*subscription]struct{})
	}
	eb.subs[ch][sub] = struct{}{}
	eb.mu.Unlock()

	go func() {
		defer func() {
			eb.mu.Lock()
			delete(eb.subs[ch], sub)
			eb.mu.Unlock()
			close(sub.done)
		}()

		for {
			select {
			case <-subCtx.Done():
				return
			case e := <-sub.events:
				handler(subCtx, e)
			}
		}
	}()

	return sub, nil
}

type subscription struct {
	events chan event.Event
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}
