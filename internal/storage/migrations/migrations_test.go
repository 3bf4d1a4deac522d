package migrations

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	latest, err := LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), latest)
}

func TestStatusUpToDate(t *testing.T) {
	assert.True(t, Status{Version: 1, Latest: 1}.UpToDate())
	assert.False(t, Status{Version: 0, Latest: 1}.UpToDate())
	assert.False(t, Status{Version: 1, Latest: 1, Dirty: true}.UpToDate())
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, MigrateUp(pool))
	require.NoError(t, MigrateUp(pool))

	status, err := CheckStatus(pool)
	require.NoError(t, err)
	assert.True(t, status.UpToDate())

	var exists bool
	err = pool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'habit_completions')`,
	).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}
