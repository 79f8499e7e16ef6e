package dedupe

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/repository"
)

func newTestService(t *testing.T, content string) (Service, string) {
	t.Helper()

	log := zerolog.Nop()
	paths := domain.NewPaths(t.TempDir())
	store := paths.StorePath("list")
	require.NoError(t, os.WriteFile(store, []byte(content), 0644))
	return NewService(log, paths, repository.NewFileRepository(log)), store
}

func TestRemoveDupesCollapsesErrorIntoResolved(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, "X (2020) [Error]\nX (2020) [456]\n")

	report, err := svc.RemoveDupes(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, domain.DedupeReport{Store: "list.txt", Groups: 1, Found: 1, Removed: 1}, report)

	b, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, "X (2020) [456]\n", string(b))
}

func TestRemoveDupesPreservesOrderAndBlanks(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, "A\n\nDune (2021) [1]\nB [Error]\n\nDune (2021) [2]\nDune (1984) [3]\nA\n")

	report, err := svc.RemoveDupes(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Groups)
	assert.Equal(t, 2, report.Removed)

	b, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, "A\n\nDune (2021) [1]\nB [Error]\n\nDune (1984) [3]\n", string(b))

	groups := FindDuplicates(strings.Split(strings.TrimSuffix(string(b), "\n"), "\n"))
	assert.Empty(t, groups)
}

func TestRemoveDupesNoDuplicatesLeavesFile(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, "A\nB")

	report, err := svc.RemoveDupes(context.Background(), store)
	require.NoError(t, err)
	assert.Zero(t, report.Removed)

	b, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, "A\nB", string(b))
}

func TestCheckDupes(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, "Heat (1995) [movie:949]\nHeat (1995) [Error]\nHeat (1986)\n")

	groups, err := svc.CheckDupes(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, domain.CanonicalKey{Title: "Heat", Year: 1995}, groups[0].Key)
	assert.Equal(t, []domain.LineRef{
		{Number: 1, Raw: "Heat (1995) [movie:949]"},
		{Number: 2, Raw: "Heat (1995) [Error]"},
	}, groups[0].Lines)

	b, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, "Heat (1995) [movie:949]\nHeat (1995) [Error]\nHeat (1986)\n", string(b))
}

func TestSurvivor(t *testing.T) {
	t.Parallel()

	group := func(raws ...string) domain.DuplicateGroup {
		g := domain.DuplicateGroup{}
		for i, r := range raws {
			g.Lines = append(g.Lines, domain.LineRef{Number: i + 1, Raw: r})
		}
		return g
	}

	tests := []struct {
		name  string
		group domain.DuplicateGroup
		want  int
	}{
		{"resolved between errors", group("X [Error]", "X [7]", "X [Error]"), 2},
		{"first resolved wins", group("X [Error]", "X [movie:8]", "X [9]"), 2},
		{"plain beats error", group("X [Error]", "X", "X [Error]"), 2},
		{"all errors keeps first", group("X [Error]", "X [Error]"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Survivor(tt.group).Number)
		})
	}
}
