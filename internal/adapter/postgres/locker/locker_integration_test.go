//go:build integration

package locker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pglocker "github.com/ons3/Pfe-Project-Final/internal/adapter/postgres/locker"
	"github.com/ons3/Pfe-Project-Final/internal/testutil"
)

func TestLocker_SecondHolderSkips(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	l := pglocker.New(pool)
	ctx := context.Background()

	var innerRan bool
	ran, err := l.TryWithLock(ctx, 42, func(ctx context.Context) error {
		ok, err := l.TryWithLock(ctx, 42, func(context.Context) error {
			innerRan = true
			return nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, innerRan)

	// Released after the first holder returns.
	ran, err = l.TryWithLock(ctx, 42, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestLocker_PropagatesError(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	l := pglocker.New(pool)

	ran, err := l.TryWithLock(context.Background(), 7, func(context.Context) error { return assert.AnError })
	assert.True(t, ran)
	assert.ErrorIs(t, err, assert.AnError)
}
