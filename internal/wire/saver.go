package wire

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ons3/Pfe-Project-Final/internal/domain/event"
	porteventbus "github.com/ons3/Pfe-Project-Final/internal/port/eventbus"
	snapshotsvc "github.com/ons3/Pfe-Project-Final/internal/service/snapshot"
)

// saveDelay coalesces bursts of cache events into one snapshot write.
const saveDelay = 500 * time.Millisecond

// startSnapshotSaver subscribes to the cache event channels and schedules a
// snapshot save after every committed write or reset raised by origin. A
// pending save is pushed back by each new event, so a burst produces one write.
// Peer events are skipped: the peer saves its own cache, and saving ours in
// response would overwrite a fresher snapshot.
func startSnapshotSaver(ctx context.Context, snapSvc *snapshotsvc.Service, bus porteventbus.EventBus, origin string) error {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(saveDelay, func() {
			if ctx.Err() != nil {
				return
			}
			if err := snapSvc.Save(context.WithoutCancel(ctx)); err != nil {
				slog.Error("snapshot saver: save failed", "error", err)
				return
			}
			slog.Debug("snapshot saver: cache snapshot saved")
		})
	}

	handler := func(_ context.Context, e event.Event) {
		if !e.From(origin) {
			return
		}
		switch e.Type {
		case event.TypeProjectsUpdated, event.TypeCacheCleared:
			schedule()
		}
	}

	for _, ch := range []event.Channel{event.ChannelProjects, event.ChannelCache} {
		if _, err := bus.Subscribe(ctx, ch, handler); err != nil {
			return fmt.Errorf("subscribing snapshot saver to %s: %w", ch, err)
		}
	}
	return nil
}
