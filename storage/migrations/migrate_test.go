package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ariya-backend/storage/migrations"
	"ariya-backend/storage/testutil"
)

func TestApply_IsIdempotent(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	require.NoError(t, migrations.Apply(ctx, pool))
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.GreaterOrEqual(t, count, 1)

	require.NoError(t, migrations.Apply(ctx, pool))
	var again int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&again))
	assert.Equal(t, count, again)

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('public.checkins') IS NOT NULL`).Scan(&exists))
	assert.True(t, exists)
}
