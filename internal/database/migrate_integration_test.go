//go:build integration

package database

import (
	"context"
	"testing"

	"github.com/cloo-solutions/docsmith/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAndConnect(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	require.NoError(t, Migrate(pc.ConnectionString(), "../../migrations"))
	// Second run is a no-op.
	require.NoError(t, Migrate(pc.ConnectionString(), "../../migrations"))

	pool, err := NewPool(ctx, Config{URL: pc.ConnectionString(), ConnectAttempts: 3})
	require.NoError(t, err)
	defer pool.Close()

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM documents").Scan(&n))
	assert.Equal(t, 0, n)
}
