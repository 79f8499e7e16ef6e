package database

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/cinelist/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsRepeatable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Ping())
}

func TestRecordCheckAccumulates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewHistoryRepo(zerolog.Nop(), db)
	ctx := context.Background()

	first := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	require.NoError(t, repo.RecordCheck(ctx, domain.MaintenanceRecord{
		Store: "movies.txt", Kind: domain.CheckErrors, RunID: "run-1",
		Found: 4, Fixed: 3, Remaining: 1, LastCheck: first,
	}))
	require.NoError(t, repo.RecordCheck(ctx, domain.MaintenanceRecord{
		Store: "movies.txt", Kind: domain.CheckErrors, RunID: "run-2",
		Found: 1, Fixed: 1, Remaining: 0, LastCheck: second,
	}))
	require.NoError(t, repo.RecordCheck(ctx, domain.MaintenanceRecord{
		Store: "movies.txt", Kind: domain.CheckDuplicates, RunID: "run-2",
		Found: 2, Fixed: 2, LastCheck: second,
	}))

	got, err := repo.GetHistory(ctx, "movies.txt")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.MaintenanceRecord{
		Store: "movies.txt", Kind: domain.CheckDuplicates, RunID: "run-2",
		Checks: 1, Found: 2, Fixed: 2, LastCheck: second,
	}, got[0])
	assert.Equal(t, domain.MaintenanceRecord{
		Store: "movies.txt", Kind: domain.CheckErrors, RunID: "run-2",
		Checks: 2, Found: 1, Fixed: 4, Remaining: 0, LastCheck: second,
	}, got[1])
}

func TestListHistory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewHistoryRepo(zerolog.Nop(), db)
	ctx := context.Background()

	empty, err := repo.ListHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, store := range []string{"b.txt", "a.txt"} {
		require.NoError(t, repo.RecordCheck(ctx, domain.MaintenanceRecord{
			Store: store, Kind: domain.CheckErrors, RunID: "r",
		}))
	}

	got, err := repo.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.txt", got[0].Store)
	assert.Equal(t, "b.txt", got[1].Store)
	assert.False(t, got[0].LastCheck.IsZero())
}
