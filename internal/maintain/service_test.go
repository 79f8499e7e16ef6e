package maintain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/cinelist/internal/cache"
	"github.com/varoOP/cinelist/internal/database"
	"github.com/varoOP/cinelist/internal/dedupe"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/repair"
	"github.com/varoOP/cinelist/internal/repository"
)

type noMatches struct{}

func (noMatches) MatchAll(_ context.Context, titles []string, _ int) []domain.MatchResult {
	return make([]domain.MatchResult, len(titles))
}

func setup(t *testing.T, files map[string]string) (Service, *domain.Paths, domain.HistoryRepo) {
	t.Helper()

	log := zerolog.Nop()
	paths := domain.NewPaths(t.TempDir())
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(paths.RootDir, name), []byte(content), 0644))
	}

	db, err := database.NewDB(paths.RootDir, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	history := database.NewHistoryRepo(log, db)

	repo := repository.NewFileRepository(log)
	cfg := &domain.Config{IncludeYear: true}
	rep := repair.NewService(log, cfg, paths, repo, cache.NewService(log, repo, paths.RootDir), noMatches{})
	dd := dedupe.NewService(log, paths, repo)
	return NewService(log, paths, rep, dd, history), paths, history
}

func TestFixRepairsBeforeDedupe(t *testing.T) {
	t.Parallel()

	svc, paths, history := setup(t, map[string]string{
		"ref.txt":  "Dune (2021) [movie:1]\n",
		"list.txt": "Dune (2021) [Error]\nDune (2021) [Error]\nArrival [Error]\n",
	})
	store := paths.StorePath("list")

	res, err := svc.Fix(context.Background(), store, "run-1", domain.CheckDuplicates, domain.CheckErrors)
	require.NoError(t, err)

	require.NotNil(t, res.Repair)
	require.NotNil(t, res.Dedupe)
	assert.Equal(t, 2, res.Repair.FromCache)
	assert.Equal(t, 1, res.Repair.Remaining)
	assert.Equal(t, 1, res.Dedupe.Removed)
	assert.Equal(t, 1, res.Errors())
	assert.Zero(t, res.Duplicates())

	b, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, "Dune (2021) [movie:1]\nArrival [Error]\n", string(b))

	recs, err := history.GetHistory(context.Background(), "list.txt")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.CheckDuplicates, recs[0].Kind)
	assert.Equal(t, 1, recs[0].Fixed)
	assert.Equal(t, domain.CheckErrors, recs[1].Kind)
	assert.Equal(t, 2, recs[1].Fixed)
	assert.Equal(t, 1, recs[1].Remaining)
}

func TestCheckDoesNotRewrite(t *testing.T) {
	t.Parallel()

	content := "A [Error]\nB [1]\nB [Error]\nB\n"
	svc, paths, _ := setup(t, map[string]string{"list.txt": content})
	store := paths.StorePath("list")

	res, err := svc.Check(context.Background(), store, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Errors())
	assert.Equal(t, 2, res.Duplicates())

	var stats domain.Statistics
	res.AddTo(&stats)
	assert.Equal(t, 1, stats.Stores)
	assert.Equal(t, 2, stats.ErrorsFound)
	assert.Equal(t, 2, stats.DuplicatesFound)

	b, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
}
