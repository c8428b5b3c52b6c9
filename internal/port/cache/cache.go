package cache

import (
	"context"
	"errors"
	"time"

	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
)

var ErrNotFound = errors.New("cache: not found")

// QueryResult is a denormalized query root read from the cache.
type QueryResult struct {
	Projects  []domainproject.Project
	FetchedAt time.Time
	// Stale is set once the root outlived the cache TTL. Stale data is kept
	// until the cache is cleared.
	Stale bool
}

// Store is a normalized cache: entities are keyed by identity and query roots
// hold ordered references to them.
// [DIP] service/project depends on this interface, not on a concrete store.
type Store interface {
	// WriteQuery upserts every project and team wholesale and replaces the
	// query root for key in one step.
	WriteQuery(ctx context.Context, key string, projects []domainproject.Project) error
	ReadQuery(ctx context.Context, key string) (QueryResult, error)
	// Invalidate marks the root for key stale without dropping its data.
	// A missing root is not an error.
	Invalidate(ctx context.Context, key string) error
	Project(ctx context.Context, id string) (domainproject.Project, error)
	Team(ctx context.Context, id string) (domainproject.Team, error)
	Clear(ctx context.Context) error
	Export(ctx context.Context) (Snapshot, error)
	Import(ctx context.Context, s Snapshot) error
}

// ProjectRecord is the normalized form of a project: teams are references.
type ProjectRecord struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	StartDate   domainproject.Date   `json:"start_date"`
	EndDate     *domainproject.Date  `json:"end_date"`
	Status      domainproject.Status `json:"status"`
	TeamIDs     []string             `json:"team_ids"`
}

type QueryRoot struct {
	Key        string    `json:"key"`
	ProjectIDs []string  `json:"project_ids"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Snapshot is the full cache content, used to persist and warm it.
type Snapshot struct {
	Teams    []domainproject.Team `json:"teams"`
	Projects []ProjectRecord      `json:"projects"`
	Queries  []QueryRoot          `json:"queries"`
}

func (s Snapshot) Empty() bool {
	return len(s.Teams) == 0 && len(s.Projects) == 0 && len(s.Queries) == 0
}
