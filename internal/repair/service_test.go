package repair

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/cinelist/internal/cache"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/repository"
)

type fakeMatcher struct {
	results map[string]domain.MatchResult
	asked   []string
}

func (f *fakeMatcher) MatchAll(_ context.Context, titles []string, _ int) []domain.MatchResult {
	out := make([]domain.MatchResult, len(titles))
	for i, t := range titles {
		f.asked = append(f.asked, t)
		out[i] = f.results[t]
	}
	return out
}

func setup(t *testing.T, m *fakeMatcher, stores map[string]string) (Service, *domain.Paths) {
	t.Helper()

	log := zerolog.Nop()
	paths := domain.NewPaths(t.TempDir())
	for name, content := range stores {
		require.NoError(t, os.WriteFile(filepath.Join(paths.RootDir, name), []byte(content), 0644))
	}
	repo := repository.NewFileRepository(log)
	cfg := &domain.Config{IncludeYear: true}
	return NewService(log, cfg, paths, repo, cache.NewService(log, repo, paths.RootDir), m), paths
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestFindErrors(t *testing.T) {
	t.Parallel()

	got := FindErrors([]string{"A [1]", "B [Error]", "", "C (2020) [Error]", "D"})
	assert.Equal(t, []domain.ErrorEntry{
		{Index: 1, Title: "B", Line: "B [Error]"},
		{Index: 3, Title: "C (2020)", Line: "C (2020) [Error]"},
	}, got)
}

func TestFixErrorsFromCacheLeavesNoErrors(t *testing.T) {
	t.Parallel()

	m := &fakeMatcher{}
	svc, paths := setup(t, m, map[string]string{
		"resolved.txt": "Dune (2021) [movie:438631]\nDark [70523]\n",
		"broken.txt":   "Dune (2021) [Error]\nKeep [5]\n\nDark [Error]\n",
	})
	store := paths.StorePath("broken")

	report, err := svc.FixErrors(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, domain.RepairReport{Store: "broken.txt", Found: 2, FromCache: 2}, report)
	assert.Empty(t, m.asked)
	assert.Equal(t, "Dune (2021) [movie:438631]\nKeep [5]\n\nDark [70523]\n", read(t, store))
}

func TestFixErrorsFallsBackToLookup(t *testing.T) {
	t.Parallel()

	m := &fakeMatcher{results: map[string]domain.MatchResult{
		"Arrival": {Matched: true, ID: 329865, Kind: domain.MediaMovie, Year: 2016},
	}}
	svc, paths := setup(t, m, map[string]string{
		"list.txt": "Arrival [Error]\nGhost Title [Error]\n",
	})
	store := paths.StorePath("list")

	report, err := svc.FixErrors(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FromLookup)
	assert.Equal(t, 1, report.Remaining)
	assert.Equal(t, 1, report.Fixed())
	assert.Equal(t, []string{"Arrival", "Ghost Title"}, m.asked)
	assert.Equal(t, "Arrival (2016) [movie:329865]\nGhost Title [Error]\n", read(t, store))
}

func TestFixErrorsNothingFixedKeepsFile(t *testing.T) {
	t.Parallel()

	svc, paths := setup(t, &fakeMatcher{}, map[string]string{
		"list.txt": "Ghost [Error]",
	})
	store := paths.StorePath("list")

	report, err := svc.FixErrors(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Remaining)
	assert.Equal(t, "Ghost [Error]", read(t, store))
}

func TestCheckErrors(t *testing.T) {
	t.Parallel()

	svc, paths := setup(t, &fakeMatcher{}, map[string]string{
		"list.txt": "A [Error]\nB\n",
	})

	entries, err := svc.CheckErrors(context.Background(), paths.StorePath("list"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
