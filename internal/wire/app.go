package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ons3/Pfe-Project-Final/internal/adapter/graphql"
	"github.com/ons3/Pfe-Project-Final/internal/adapter/memory"
	"github.com/ons3/Pfe-Project-Final/internal/adapter/metrics"
	pgdb "github.com/ons3/Pfe-Project-Final/internal/adapter/postgres"
	pgeventbus "github.com/ons3/Pfe-Project-Final/internal/adapter/postgres/eventbus"
	pglocker "github.com/ons3/Pfe-Project-Final/internal/adapter/postgres/locker"
	pgsnapshot "github.com/ons3/Pfe-Project-Final/internal/adapter/postgres/snapshot"
	redisadapter "github.com/ons3/Pfe-Project-Final/internal/adapter/redis"
	"github.com/ons3/Pfe-Project-Final/internal/config"

	porteventbus "github.com/ons3/Pfe-Project-Final/internal/port/eventbus"
	portlocker "github.com/ons3/Pfe-Project-Final/internal/port/locker"
	portsnapshot "github.com/ons3/Pfe-Project-Final/internal/port/snapshot"

	projectsvc "github.com/ons3/Pfe-Project-Final/internal/service/project"
	refreshersvc "github.com/ons3/Pfe-Project-Final/internal/service/refresher"
	snapshotsvc "github.com/ons3/Pfe-Project-Final/internal/service/snapshot"

	"github.com/ons3/Pfe-Project-Final/internal/transport"
	mcptransport "github.com/ons3/Pfe-Project-Final/internal/transport/mcp"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Server     *http.Server
	ProjectSvc *projectsvc.Service
	MCPServer  *mcptransport.Server

	closers []func()
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies.
func Build(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	app := &App{}

	// ── Adapters ─────────────────────────────────────────────────────────────
	client := graphql.NewClient(cfg.GraphQL.Endpoint, cfg.GraphQL.Token, &http.Client{})
	cache := memory.NewCache(cfg.Cache.TTL)
	recorder := metrics.NewRecorder()

	var (
		eventBus  porteventbus.EventBus = memory.NewEventBus()
		locker    portlocker.Locker     = memory.NewLocker()
		snapStore portsnapshot.Store
	)

	// ── Snapshot backend ─────────────────────────────────────────────────────
	// Postgres also carries events and the revalidation lock across instances.
	switch cfg.Snapshot.Backend {
	case config.BackendPostgres:
		pool, err := pgdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		if err := pgdb.Migrate(ctx, pool); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		snapStore = pgsnapshot.New(pool)
		eventBus = pgeventbus.New(pool)
		locker = pglocker.New(pool)
	case config.BackendRedis:
		rdb, err := redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		app.closers = append(app.closers, func() { rdb.Close() })
		snapStore = redisadapter.NewSnapshotStore(rdb, cfg.Snapshot.TTL)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	projectSvcInstance := projectsvc.NewService(client, cache, eventBus, recorder, projectsvc.Config{
		Timeout:       cfg.GraphQL.Timeout,
		DefaultPolicy: cfg.Policy(),
	})

	if err := projectSvcInstance.FollowPeers(ctx); err != nil {
		app.Close()
		return nil, err
	}

	if snapStore != nil {
		snapSvc := snapshotsvc.NewService(snapStore, cache)
		if err := snapSvc.Warm(ctx); err != nil {
			// A cold cache still serves; the next fetch fills it.
			slog.WarnContext(ctx, "cache warm-up failed", "error", err)
		}
		if err := startSnapshotSaver(ctx, snapSvc, eventBus, projectSvcInstance.Origin()); err != nil {
			app.Close()
			return nil, err
		}
	}

	if cfg.Cache.RefreshSchedule != "" {
		refresher := refreshersvc.NewService(projectSvcInstance, locker, cfg.GraphQL.Timeout)
		if err := refresher.Start(ctx, cfg.Cache.RefreshSchedule); err != nil {
			app.Close()
			return nil, err
		}
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Refetch.Rate), cfg.Refetch.Burst)
	mcpServer := mcptransport.New(projectSvcInstance, limiter, version)

	// ── Transport ─────────────────────────────────────────────────────────────
	router := transport.NewRouter(
		ctx,
		projectSvcInstance,
		limiter,
		mcpServer,
		eventBus,
		recorder.Handler(),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	slog.Info("application wired",
		"port", cfg.Port,
		"endpoint", cfg.GraphQL.Endpoint,
		"policy", cfg.Policy(),
		"snapshot_backend", cfg.Snapshot.Backend,
	)

	app.Server = server
	app.ProjectSvc = projectSvcInstance
	app.MCPServer = mcpServer
	return app, nil
}
