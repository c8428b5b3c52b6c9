package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
	portsnapshot "github.com/ons3/Pfe-Project-Final/internal/port/snapshot"
)

var _ portsnapshot.Store = (*Repository)(nil)

// Repository keeps one cache snapshot across three tables. Save replaces the
// previous snapshot in a single transaction.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Save(ctx context.Context, s portcache.Snapshot) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE cached_queries, cached_projects, cached_teams`); err != nil {
			return fmt.Errorf("truncate snapshot: %w", err)
		}

		batch := &pgx.Batch{}
		for _, t := range s.Teams {
			batch.Queue(`INSERT INTO cached_teams (id, name) VALUES ($1, $2)`, t.ID, t.Name)
		}
		for _, p := range s.Projects {
			var end *time.Time
			if p.EndDate != nil {
				e := p.EndDate.Time()
				end = &e
			}
			teamIDs := p.TeamIDs
			if teamIDs == nil {
				teamIDs = []string{}
			}
			batch.Queue(
				`INSERT INTO cached_projects (id, name, description, start_date, end_date, status, team_ids)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ID, p.Name, p.Description, p.StartDate.Time(), end, string(p.Status), teamIDs,
			)
		}
		for _, q := range s.Queries {
			ids := q.ProjectIDs
			if ids == nil {
				ids = []string{}
			}
			batch.Queue(`INSERT INTO cached_queries (key, project_ids, fetched_at) VALUES ($1, $2, $3)`,
				q.Key, ids, q.FetchedAt)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	})
}

func (r *Repository) Load(ctx context.Context) (portcache.Snapshot, error) {
	var out portcache.Snapshot

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM cached_teams ORDER BY id`)
	if err != nil {
		return portcache.Snapshot{}, fmt.Errorf("load teams: %w", err)
	}
	out.Teams, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domainproject.Team, error) {
		var t domainproject.Team
		err := row.Scan(&t.ID, &t.Name)
		return t, err
	})
	if err != nil {
		return portcache.Snapshot{}, fmt.Errorf("scan teams: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT id, name, description, start_date, end_date, status, team_ids FROM cached_projects ORDER BY id`)
	if err != nil {
		return portcache.Snapshot{}, fmt.Errorf("load projects: %w", err)
	}
	out.Projects, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (portcache.ProjectRecord, error) {
		var (
			p      portcache.ProjectRecord
			start  time.Time
			end    *time.Time
			status string
		)
		if err := row.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &status, &p.TeamIDs); err != nil {
			return p, err
		}
		p.StartDate = domainproject.DateOf(start)
		if end != nil {
			d := domainproject.DateOf(*end)
			p.EndDate = &d
		}
		p.Status = domainproject.Status(status)
		return p, nil
	})
	if err != nil {
		return portcache.Snapshot{}, fmt.Errorf("scan projects: %w", err)
	}

	rows, err = r.pool.Query(ctx, `SELECT key, project_ids, fetched_at FROM cached_queries`)
	if err != nil {
		return portcache.Snapshot{}, fmt.Errorf("load queries: %w", err)
	}
	out.Queries, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (portcache.QueryRoot, error) {
		var q portcache.QueryRoot
		err := row.Scan(&q.Key, &q.ProjectIDs, &q.FetchedAt)
		return q, err
	})
	if err != nil {
		return portcache.Snapshot{}, fmt.Errorf("scan queries: %w", err)
	}

	return out, nil
}
