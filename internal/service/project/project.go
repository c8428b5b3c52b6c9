package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ons3/Pfe-Project-Final/internal/domain/event"
	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
	"github.com/ons3/Pfe-Project-Final/internal/domain/query"
	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
	porteventbus "github.com/ons3/Pfe-Project-Final/internal/port/eventbus"
	portexecutor "github.com/ons3/Pfe-Project-Final/internal/port/executor"
	portmetrics "github.com/ons3/Pfe-Project-Final/internal/port/metrics"
)

type Config struct {
	// Timeout bounds one network round trip. Zero means no bound beyond
	// the executor's own.
	Timeout time.Duration
	// DefaultPolicy applies when FetchProjects is given an empty policy.
	DefaultPolicy fetch.Policy
	// Origin stamps published events. Defaults to event.LocalOrigin.
	Origin string
}

// Service fetches the project list, merges it into the normalized cache and
// hands results to consumers as reactive handles.
// [DIP] Depends on ports, never on adapters or transport.
type Service struct {
	exec     portexecutor.Executor
	store    portcache.Store
	bus      porteventbus.EventBus
	recorder portmetrics.Recorder
	cfg      Config

	group singleflight.Group
	seq   atomic.Uint64

	// commitMu orders cache writes; committed is the newest fetch sequence
	// allowed to write. Older responses are dropped.
	commitMu  sync.Mutex
	committed uint64
}

func NewService(
	exec portexecutor.Executor,
	store portcache.Store,
	bus porteventbus.EventBus,
	recorder portmetrics.Recorder,
	cfg Config,
) *Service {
	if recorder == nil {
		recorder = portmetrics.Nop{}
	}
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = fetch.DefaultPolicy
	}
	if cfg.Origin == "" {
		cfg.Origin = event.LocalOrigin
	}
	return &Service{
		exec:     exec,
		store:    store,
		bus:      bus,
		recorder: recorder,
		cfg:      cfg,
	}
}

func (s *Service) DefaultPolicy() fetch.Policy { return s.cfg.DefaultPolicy }

// Origin identifies the events this service publishes.
func (s *Service) Origin() string { return s.cfg.Origin }

// FetchProjects starts (or joins) a fetch of every project with its teams and
// returns immediately. The handle is already resolved when the policy lets the
// cache answer.
func (s *Service) FetchProjects(ctx context.Context, policy fetch.Policy) *Handle {
	if policy == "" {
		policy = s.cfg.DefaultPolicy
	}
	s.recorder.FetchRequested(string(policy))

	q := query.GetProjects
	key := q.Key(nil)
	ctx, cancel := context.WithCancel(ctx)
	h := newHandle(cancel)

	var (
		cached portcache.QueryResult
		hit    bool
	)
	if policy != fetch.PolicyNetworkOnly {
		res, err := s.store.ReadQuery(ctx, key)
		switch {
		case err == nil:
			cached, hit = res, true
		case !errors.Is(err, portcache.ErrNotFound):
			slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
		s.recorder.CacheLookup(hit && !(policy == fetch.PolicyCacheFirst && cached.Stale))
	}

	switch policy {
	case fetch.PolicyCacheOnly:
		if hit {
			h.succeed(cached.Projects, true)
		} else {
			h.fail(fetch.CacheMissError(q.OperationName()))
		}
		cancel()
		return h
	case fetch.PolicyCacheFirst:
		if hit && !cached.Stale {
			h.succeed(cached.Projects, true)
			cancel()
			return h
		}
	case fetch.PolicyCacheAndNetwork:
		if hit {
			h.succeed(cached.Projects, true)
		}
	}

	// DoChan runs synchronously up to the point of joining the flight, so a
	// second caller arriving before this one resolves always shares it.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.fetchAndCommit(ctx, key)
	})
	go s.await(ctx, cancel, h, ch, policy == fetch.PolicyCacheAndNetwork && hit)
	return h
}

// Refetch bypasses the cache for the read but still writes the result.
func (s *Service) Refetch(ctx context.Context) *Handle {
	return s.FetchProjects(ctx, fetch.PolicyNetworkOnly)
}

// Cached returns the cached project list without any network activity.
func (s *Service) Cached(ctx context.Context) (portcache.QueryResult, bool) {
	res, err := s.store.ReadQuery(ctx, query.GetProjects.Key(nil))
	if err != nil {
		if !errors.Is(err, portcache.ErrNotFound) {
			slog.WarnContext(ctx, "cache read failed", "error", err)
		}
		return portcache.QueryResult{}, false
	}
	return res, true
}

func (s *Service) Project(ctx context.Context, id string) (domainproject.Project, error) {
	p, err := s.store.Project(ctx, id)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *Service) Team(ctx context.Context, id string) (domainproject.Team, error) {
	t, err := s.store.Team(ctx, id)
	if err != nil {
		return domainproject.Team{}, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

// Reset empties the cache. Responses for fetches issued before the reset are
// discarded when they arrive, and callers arriving afterwards start a new flight.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.clear(ctx); err != nil {
		return fmt.Errorf("reset cache: %w", err)
	}
	s.publish(ctx, event.New(event.TypeCacheCleared, "", 0))
	slog.InfoContext(ctx, "project cache reset")
	return nil
}

// FollowPeers subscribes to the bus and applies events raised by other
// instances to the local cache. A peer's update marks the local root stale so
// the next cache-first read refetches; a peer's reset clears the local cache.
// Neither republishes, so peers never echo each other.
func (s *Service) FollowPeers(ctx context.Context) error {
	for _, ch := range []event.Channel{event.ChannelProjects, event.ChannelCache} {
		if _, err := s.bus.Subscribe(ctx, ch, s.applyPeerEvent); err != nil {
			return fmt.Errorf("subscribe to peer %s events: %w", ch, err)
		}
	}
	return nil
}

func (s *Service) applyPeerEvent(ctx context.Context, e event.Event) {
	if e.From(s.cfg.Origin) {
		return
	}
	switch e.Type {
	case event.TypeProjectsUpdated:
		if err := s.store.Invalidate(ctx, e.QueryKey); err != nil {
			slog.WarnContext(ctx, "failed to invalidate after peer update", "origin", e.Origin, "error", err)
			return
		}
		slog.DebugContext(ctx, "peer refreshed projects; local root marked stale", "origin", e.Origin)
	case event.TypeCacheCleared:
		if err := s.clear(ctx); err != nil {
			slog.WarnContext(ctx, "failed to clear after peer reset", "origin", e.Origin, "error", err)
			return
		}
		slog.InfoContext(ctx, "project cache cleared by peer", "origin", e.Origin)
	}
}

// clear drops the cache and every in-flight response. The flight is
// forgotten before the store is emptied so no caller can join it afterwards.
func (s *Service) clear(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.committed = s.seq.Load()
	s.group.Forget(query.GetProjects.Key(nil))
	return s.store.Clear(ctx)
}

func (s *Service) publish(ctx context.Context, e event.Event) {
	e.Origin = s.cfg.Origin
	if err := s.bus.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "event", e.Type, "error", err)
	}
}

func (s *Service) await(ctx context.Context, cancel context.CancelFunc, h *Handle, ch <-chan singleflight.Result, revalidating bool) {
	defer cancel()

	select {
	case res := <-ch:
		if res.Shared {
			s.recorder.Coalesced()
		}
		if res.Err != nil {
			if revalidating {
				slog.WarnContext(ctx, "background revalidation failed; serving cached projects", "error", res.Err)
				return
			}
			h.fail(res.Err)
			return
		}
		h.succeed(cloneAll(res.Val.([]domainproject.Project)), false)
	case <-ctx.Done():
		if revalidating {
			return
		}
		h.fail(fetch.CancelledError(query.GetProjects.OperationName(), ctx.Err()))
	}
}

// fetchAndCommit runs once per flight. It is detached from the caller's
// cancellation so other callers sharing the flight still get the result.
func (s *Service) fetchAndCommit(ctx context.Context, key string) ([]domainproject.Project, error) {
	q := query.GetProjects
	op := q.OperationName()
	seq := s.seq.Add(1)
	start := time.Now()

	fctx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc
	if s.cfg.Timeout > 0 {
		fctx, cancel = context.WithTimeout(fctx, s.cfg.Timeout)
	} else {
		fctx, cancel = context.WithCancel(fctx)
	}
	defer cancel()

	projects, err := s.execute(fctx, op)
	if err != nil {
		s.recorder.FetchCompleted(string(fetch.KindOf(err)), time.Since(start))
		slog.WarnContext(fctx, "project fetch failed", "operation", op, "seq", seq, "error", err)
		s.publish(fctx, event.Failed(key, err))
		return nil, err
	}

	written, err := s.commit(fctx, seq, key, projects)
	if err != nil {
		s.recorder.FetchCompleted("cache_error", time.Since(start))
		return nil, err
	}
	s.recorder.FetchCompleted("success", time.Since(start))
	slog.InfoContext(fctx, "projects fetched", "operation", op, "seq", seq, "count", len(projects), "cached", written)

	if written {
		s.publish(fctx, event.New(event.TypeProjectsUpdated, key, len(projects)))
	}
	return projects, nil
}

func (s *Service) execute(ctx context.Context, op string) ([]domainproject.Project, error) {
	var data projectsData
	if err := s.exec.Execute(ctx, query.GetProjects, nil, &data); err != nil {
		if fetch.KindOf(err) == "" {
			err = fetch.NetworkError(op, err)
		}
		return nil, err
	}
	return mapProjects(op, data)
}

// commit writes projects unless a newer fetch (or a reset) already committed.
func (s *Service) commit(ctx context.Context, seq uint64, key string, projects []domainproject.Project) (bool, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if seq <= s.committed {
		slog.InfoContext(ctx, "discarding superseded project response", "seq", seq, "committed", s.committed)
		return false, nil
	}
	if err := s.store.WriteQuery(ctx, key, projects); err != nil {
		return false, fmt.Errorf("cache projects: %w", err)
	}
	s.committed = seq
	return true, nil
}

func cloneAll(projects []domainproject.Project) []domainproject.Project {
	out := make([]domainproject.Project, len(projects))
	for i, p := range projects {
		out[i] = p.Clone()
	}
	return out
}
