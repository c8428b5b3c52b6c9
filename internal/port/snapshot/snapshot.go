package snapshot

import (
	"context"

	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
)

// Store persists cache snapshots so a restarted process starts warm.
// Load returns an empty snapshot and no error when nothing was saved.
type Store interface {
	Save(ctx context.Context, s portcache.Snapshot) error
	Load(ctx context.Context) (portcache.Snapshot, error)
}
