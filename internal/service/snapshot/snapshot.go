package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
	portsnapshot "github.com/ons3/Pfe-Project-Final/internal/port/snapshot"
)

// Service copies the normalized cache to and from a persistent store.
type Service struct {
	store portsnapshot.Store
	cache portcache.Store

	// saveMu keeps concurrent saves from interleaving in the store.
	saveMu sync.Mutex
}

func NewService(store portsnapshot.Store, cache portcache.Store) *Service {
	return &Service{store: store, cache: cache}
}

// Warm loads the last saved snapshot into the cache. An empty snapshot
// leaves the cache as it is.
func (s *Service) Warm(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cache snapshot: %w", err)
	}
	if snap.Empty() {
		slog.InfoContext(ctx, "no cache snapshot to warm from")
		return nil
	}
	if err := s.cache.Import(ctx, snap); err != nil {
		return fmt.Errorf("import cache snapshot: %w", err)
	}
	slog.InfoContext(ctx, "cache warmed from snapshot",
		"projects", len(snap.Projects), "teams", len(snap.Teams), "queries", len(snap.Queries))
	return nil
}

// Save writes the current cache content to the store.
func (s *Service) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap, err := s.cache.Export(ctx)
	if err != nil {
		return fmt.Errorf("export cache: %w", err)
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save cache snapshot: %w", err)
	}
	return nil
}
