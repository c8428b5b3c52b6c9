package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	portlocker "github.com/ons3/Pfe-Project-Final/internal/port/locker"
	projectsvc "github.com/ons3/Pfe-Project-Final/internal/service/project"
)

// lockKey identifies the revalidation job among advisory locks.
const lockKey int64 = 0x70726f6a // "proj"

// Service revalidates the project cache on a cron schedule. With a shared
// locker only one server instance refetches per tick.
type Service struct {
	projects *projectsvc.Service
	locker   portlocker.Locker
	timeout  time.Duration

	cron *cron.Cron
}

func NewService(projects *projectsvc.Service, locker portlocker.Locker, timeout time.Duration) *Service {
	return &Service{
		projects: projects,
		locker:   locker,
		timeout:  timeout,
	}
}

// Start schedules RunOnce using a standard five-field cron spec or a
// descriptor such as "@every 5m". The schedule stops when ctx is done.
func (s *Service) Start(ctx context.Context, spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			slog.WarnContext(ctx, "scheduled revalidation failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	slog.InfoContext(ctx, "cache revalidation scheduled", "schedule", spec)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// RunOnce forces one network fetch. It reports false when another holder
// owned the lock and nothing ran.
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	return s.locker.TryWithLock(ctx, lockKey, func(ctx context.Context) error {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		projects, err := s.projects.Refetch(ctx).Result(ctx)
		if err != nil {
			return fmt.Errorf("revalidate projects: %w", err)
		}
		slog.InfoContext(ctx, "projects revalidated", "count", len(projects))
		return nil
	})
}
