package project

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
)

// Snapshot is one observable state of a Handle. Projects is shared between
// readers and must be treated as read-only.
type Snapshot struct {
	State     fetch.State
	Projects  []domainproject.Project
	Err       error
	FromCache bool
	// Version increases by one on every transition.
	Version uint64
}

// Handle is the reactive result of one FetchProjects call. The fetch
// goroutine is its only writer; any number of goroutines may read it.
//
// Transitions: loading -> success | error, then success -> success when a
// background revalidation lands. error is final.
type Handle struct {
	id     uuid.UUID
	cancel context.CancelFunc
	cur    atomic.Pointer[Snapshot]
	done   chan struct{}

	mu     sync.Mutex
	subs   map[uint64]chan Snapshot
	nextID uint64
}

func newHandle(cancel context.CancelFunc) *Handle {
	h := &Handle{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[uint64]chan Snapshot),
	}
	h.cur.Store(&Snapshot{State: fetch.StateLoading})
	return h
}

func (h *Handle) ID() uuid.UUID { return h.id }

func (h *Handle) Snapshot() Snapshot { return *h.cur.Load() }

func (h *Handle) State() fetch.State { return h.cur.Load().State }

// Done is closed on the first transition out of loading.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the handle leaves loading or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-h.done:
		return h.Snapshot(), nil
	case <-ctx.Done():
		return h.Snapshot(), ctx.Err()
	}
}

// Result waits for the handle and returns its data or error.
func (h *Handle) Result(ctx context.Context) ([]domainproject.Project, error) {
	snap, err := h.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if snap.State == fetch.StateError {
		return nil, snap.Err
	}
	return snap.Projects, nil
}

// Cancel abandons the fetch. A handle still loading resolves to a cancelled
// error; a resolved handle keeps its state.
func (h *Handle) Cancel() { h.cancel() }

// Subscribe returns a channel that receives the current snapshot and then
// each later one. The channel keeps only the latest unread snapshot.
// The returned func unsubscribes and closes the channel.
func (h *Handle) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	ch <- *h.cur.Load()
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
}

func (h *Handle) succeed(projects []domainproject.Project, fromCache bool) {
	h.transition(Snapshot{State: fetch.StateSuccess, Projects: projects, FromCache: fromCache})
}

func (h *Handle) fail(err error) {
	h.transition(Snapshot{State: fetch.StateError, Err: err})
}

func (h *Handle) transition(next Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.cur.Load()
	if prev.State == fetch.StateError {
		return
	}
	// A resolved handle never falls back to error: the data it already
	// exposed stays valid.
	if prev.State == fetch.StateSuccess && next.State == fetch.StateError {
		return
	}

	next.Version = prev.Version + 1
	h.cur.Store(&next)
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
	if prev.State == fetch.StateLoading {
		close(h.done)
	}
}
