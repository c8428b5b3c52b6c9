package locker

import "context"

// Locker runs a critical section on at most one server instance at a time.
// TryWithLock does not wait: it reports false when another holder has the lock.
type Locker interface {
	TryWithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error)
}
