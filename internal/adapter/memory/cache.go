package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
)

var _ portcache.Store = (*Cache)(nil)

type queryEntry struct {
	projectIDs  []string
	fetchedAt   time.Time
	invalidated bool
}

// Cache is the in-process normalized result cache. Entities live in one map
// per type; query roots hold ordered IDs into them.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	teams    map[string]domainproject.Team
	projects map[string]portcache.ProjectRecord
	queries  map[string]queryEntry
}

// NewCache returns an empty cache. A query root older than ttl reads as
// stale; ttl <= 0 means roots never go stale.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:      ttl,
		now:      time.Now,
		teams:    make(map[string]domainproject.Team),
		projects: make(map[string]portcache.ProjectRecord),
		queries:  make(map[string]queryEntry),
	}
}

func (c *Cache) WriteQuery(_ context.Context, key string, projects []domainproject.Project) error {
	ids := make([]string, 0, len(projects))
	records := make([]portcache.ProjectRecord, 0, len(projects))
	for _, p := range projects {
		if p.ID == "" {
			return fmt.Errorf("write query %s: project without id", key)
		}
		for _, t := range p.Teams {
			if t.ID == "" {
				return fmt.Errorf("write query %s: team without id in project %s", key, p.ID)
			}
		}
		ids = append(ids, p.ID)
		records = append(records, normalize(p))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range projects {
		for _, t := range p.Teams {
			c.teams[t.ID] = t
		}
	}
	for _, r := range records {
		c.projects[r.ID] = r
	}
	c.queries[key] = queryEntry{projectIDs: ids, fetchedAt: c.now()}
	return nil
}

func (c *Cache) ReadQuery(_ context.Context, key string) (portcache.QueryResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.queries[key]
	if !ok {
		return portcache.QueryResult{}, portcache.ErrNotFound
	}
	out := make([]domainproject.Project, 0, len(entry.projectIDs))
	for _, id := range entry.projectIDs {
		p, ok := c.denormalize(id)
		if !ok {
			// A dangling reference can only come from an inconsistent import;
			// treat the whole root as missing so the caller refetches.
			return portcache.QueryResult{}, portcache.ErrNotFound
		}
		out = append(out, p)
	}
	return portcache.QueryResult{
		Projects:  out,
		FetchedAt: entry.fetchedAt,
		Stale:     entry.invalidated || (c.ttl > 0 && c.now().After(entry.fetchedAt.Add(c.ttl))),
	}, nil
}

func (c *Cache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.queries[key]; ok {
		entry.invalidated = true
		c.queries[key] = entry
	}
	return nil
}

func (c *Cache) Project(_ context.Context, id string) (domainproject.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.denormalize(id)
	if !ok {
		return domainproject.Project{}, portcache.ErrNotFound
	}
	return p, nil
}

func (c *Cache) Team(_ context.Context, id string) (domainproject.Team, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.teams[id]
	if !ok {
		return domainproject.Team{}, portcache.ErrNotFound
	}
	return t, nil
}

func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.teams = make(map[string]domainproject.Team)
	c.projects = make(map[string]portcache.ProjectRecord)
	c.queries = make(map[string]queryEntry)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Export(_ context.Context) (portcache.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := portcache.Snapshot{
		Teams:    make([]domainproject.Team, 0, len(c.teams)),
		Projects: make([]portcache.ProjectRecord, 0, len(c.projects)),
		Queries:  make([]portcache.QueryRoot, 0, len(c.queries)),
	}
	for _, t := range c.teams {
		s.Teams = append(s.Teams, t)
	}
	for _, p := range c.projects {
		s.Projects = append(s.Projects, cloneRecord(p))
	}
	for key, q := range c.queries {
		s.Queries = append(s.Queries, portcache.QueryRoot{
			Key:        key,
			ProjectIDs: append([]string(nil), q.projectIDs...),
			FetchedAt:  q.fetchedAt,
		})
	}
	return s, nil
}

// Import replaces the cache content with s.
func (c *Cache) Import(_ context.Context, s portcache.Snapshot) error {
	teams := make(map[string]domainproject.Team, len(s.Teams))
	for _, t := range s.Teams {
		teams[t.ID] = t
	}
	projects := make(map[string]portcache.ProjectRecord, len(s.Projects))
	for _, p := range s.Projects {
		projects[p.ID] = cloneRecord(p)
	}
	queries := make(map[string]queryEntry, len(s.Queries))
	for _, q := range s.Queries {
		queries[q.Key] = queryEntry{
			projectIDs: append([]string(nil), q.ProjectIDs...),
			fetchedAt:  q.FetchedAt,
		}
	}

	c.mu.Lock()
	c.teams, c.projects, c.queries = teams, projects, queries
	c.mu.Unlock()
	return nil
}

// denormalize must be called with c.mu held.
func (c *Cache) denormalize(id string) (domainproject.Project, bool) {
	r, ok := c.projects[id]
	if !ok {
		return domainproject.Project{}, false
	}
	p := domainproject.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		Status:      r.Status,
		Teams:       make([]domainproject.Team, 0, len(r.TeamIDs)),
	}
	if r.EndDate != nil {
		d := *r.EndDate
		p.EndDate = &d
	}
	for _, tid := range r.TeamIDs {
		t, ok := c.teams[tid]
		if !ok {
			return domainproject.Project{}, false
		}
		p.Teams = append(p.Teams, t)
	}
	return p, true
}

func normalize(p domainproject.Project) portcache.ProjectRecord {
	r := portcache.ProjectRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate,
		Status:      p.Status,
		TeamIDs:     p.TeamIDs(),
	}
	if p.EndDate != nil {
		d := *p.EndDate
		r.EndDate = &d
	}
	return r
}

func cloneRecord(r portcache.ProjectRecord) portcache.ProjectRecord {
	out := r
	out.TeamIDs = append([]string{}, r.TeamIDs...)
	if r.EndDate != nil {
		d := *r.EndDate
		out.EndDate = &d
	}
	return out
}
