package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
)

const key = "GetProjects"

func alpha() domainproject.Project {
	return domainproject.Project{
		ID:        "p1",
		Name:      "Alpha",
		StartDate: domainproject.Date{Year: 2024, Month: time.January, Day: 1},
		Status:    domainproject.StatusActive,
		Teams:     []domainproject.Team{{ID: "t1", Name: "Core"}},
	}
}

func TestCache_WriteThenRead(t *testing.T) {
	c := NewCache(0)
	ctx := context.Background()

	require.NoError(t, c.WriteQuery(ctx, key, []domainproject.Project{alpha()}))

	res, err := c.ReadQuery(ctx, key)
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, alpha(), res.Projects[0])
	assert.False(t, res.Stale)

	p, err := c.Project(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)

	team, err := c.Team(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Core", team.Name)
}

func TestCache_ReadMissing(t *testing.T) {
	c := NewCache(0)
	_, err := c.ReadQuery(context.Background(), key)
	assert.ErrorIs(t, err, portcache.ErrNotFound)
	_, err = c.Project(context.Background(), "nope")
	assert.ErrorIs(t, err, portcache.ErrNotFound)
	_, err = c.Team(context.Background(), "nope")
	assert.ErrorIs(t, err, portcache.ErrNotFound)
}

func TestCache_EmptyListIsAHit(t *testing.T) {
	c := NewCache(0)
	require.NoError(t, c.WriteQuery(context.Background(), key, []domainproject.Project{}))

	res, err := c.ReadQuery(context.Background(), key)
	require.NoError(t, err)
	assert.NotNil(t, res.Projects)
	assert.Empty(t, res.Projects)
}

func TestCache_ProjectWithoutTeamsReadsEmptySlice(t *testing.T) {
	c := NewCache(0)
	p := alpha()
	p.Teams = nil
	require.NoError(t, c.WriteQuery(context.Background(), key, []domainproject.Project{p}))

	got, err := c.Project(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, got.Teams)
	assert.Empty(t, got.Teams)
}

func TestCache_UpsertOverwritesWholesale(t *testing.T) {
	c := NewCache(0)
	ctx := context.Background()
	require.NoError(t, c.WriteQuery(ctx, key, []domainproject.Project{alpha()}))

	renamed := alpha()
	renamed.Name = "Alpha v2"
	renamed.Description = ""
	renamed.Teams = []domainproject.Team{{ID: "t1", Name: "Core Platform"}, {ID: "t2", Name: "QA"}}
	require.NoError(t, c.WriteQuery(ctx, "OtherQuery", []domainproject.Project{renamed}))

	// The entity is shared: the first query root sees the newer fields.
	res, err := c.ReadQuery(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Alpha v2", res.Projects[0].Name)
	assert.Equal(t, []string{"t1", "t2"}, res.Projects[0].TeamIDs())
	assert.Equal(t, "Core Platform", res.Projects[0].Teams[0].Name)
}

func TestCache_ReadReturnsCopies(t *testing.T) {
	c := NewCache(0)
	ctx := context.Background()
	require.NoError(t, c.WriteQuery(ctx, key, []domainproject.Project{alpha()}))

	res, err := c.ReadQuery(ctx, key)
	require.NoError(t, err)
	res.Projects[0].Teams[0].Name = "mutated"

	again, err := c.ReadQuery(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Core", again.Projects[0].Teams[0].Name)
}

func TestCache_RejectsMissingIDs(t *testing.T) {
	c := NewCache(0)
	err := c.WriteQuery(context.Background(), key, []domainproject.Project{{Name: "anon"}})
	assert.Error(t, err)

	_, err = c.ReadQuery(context.Background(), key)
	assert.ErrorIs(t, err, portcache.ErrNotFound, "failed write must not create a root")
}

func TestCache_TTLMarksStale(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.WriteQuery(ctx, key, []domainproject.Project{alpha()}))

	now = now.Add(30 * time.Second)
	res, err := c.ReadQuery(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Stale)

	now = now.Add(time.Minute)
	res, err = c.ReadQuery(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Len(t, res.Projects, 1, "stale data is kept")
}

func TestCache_InvalidateMarksStaleUntilNextWrite(t *testing.T) {
	c := NewCache(0)
	ctx := context.Background()
	require.NoError(t, c.Invalidate(ctx, key), "missing root is not an error")

	require.NoError(t, c.WriteQuery(ctx, key, []domainproject.Project{alpha()}))
	require.NoError(t, c.Invalidate(ctx, key))

	res, err := c.ReadQuery(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Len(t, res.Projects, 1, "invalidation keeps the data")

	require.NoError(t, c.WriteQuery(ctx, key, []domainproject.Project{alpha()}))
	res, err = c.ReadQuery(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Stale)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache(0)
	ctx := context.Background()
	require.NoError(t, c.WriteQuery(ctx, key, []domainproject.Project{alpha()}))
	require.NoError(t, c.Clear(ctx))

	_, err := c.ReadQuery(ctx, key)
	assert.ErrorIs(t, err, portcache.ErrNotFound)
	_, err = c.Team(ctx, "t1")
	assert.ErrorIs(t, err, portcache.ErrNotFound)
}

func TestCache_ExportImport(t *testing.T) {
	src := NewCache(0)
	ctx := context.Background()
	end := domainproject.Date{Year: 2024, Month: time.June, Day: 30}
	p := alpha()
	p.EndDate = &end
	require.NoError(t, src.WriteQuery(ctx, key, []domainproject.Project{p}))

	snap, err := src.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Teams, 1)
	assert.Len(t, snap.Projects, 1)
	require.Len(t, snap.Queries, 1)
	assert.Equal(t, []string{"p1"}, snap.Queries[0].ProjectIDs)

	dst := NewCache(0)
	require.NoError(t, dst.Import(ctx, snap))
	res, err := dst.ReadQuery(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []domainproject.Project{p}, res.Projects)
}

func TestCache_ImportDanglingReferenceIsAMiss(t *testing.T) {
	c := NewCache(0)
	ctx := context.Background()
	require.NoError(t, c.Import(ctx, portcache.Snapshot{
		Queries: []portcache.QueryRoot{{Key: key, ProjectIDs: []string{"ghost"}}},
	}))

	_, err := c.ReadQuery(ctx, key)
	assert.ErrorIs(t, err, portcache.ErrNotFound)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.WriteQuery(ctx, key, []domainproject.Project{alpha()})
		}()
		go func() {
			defer wg.Done()
			if res, err := c.ReadQuery(ctx, key); err == nil {
				assert.Len(t, res.Projects, 1)
			}
		}()
	}
	wg.Wait()
}
