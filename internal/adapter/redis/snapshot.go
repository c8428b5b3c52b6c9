package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
	portsnapshot "github.com/ons3/Pfe-Project-Final/internal/port/snapshot"
)

var _ portsnapshot.Store = (*SnapshotStore)(nil)

const snapshotKey = "projects-cache:snapshot" // one JSON document per deployment

// SnapshotStore keeps the cache snapshot as a single JSON value.
type SnapshotStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSnapshotStore returns a store whose value expires after ttl; ttl <= 0
// keeps it until overwritten.
func NewSnapshotStore(client *goredis.Client, ttl time.Duration) *SnapshotStore {
	if ttl < 0 {
		ttl = 0
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap portcache.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context) (portcache.Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return portcache.Snapshot{}, nil
	}
	if err != nil {
		return portcache.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap portcache.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return portcache.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}
