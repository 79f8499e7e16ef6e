package repair

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/pool"
	"github.com/varoOP/cinelist/internal/reconcile"
)

const (
	minWorkers = 5
	maxWorkers = 20
)

type Service interface {
	CheckErrors(ctx context.Context, storePath string) ([]domain.ErrorEntry, error)
	FixErrors(ctx context.Context, storePath string) (domain.RepairReport, error)
}

type service struct {
	log         zerolog.Logger
	paths       *domain.Paths
	stores      domain.StoreRepository
	cache       domain.CacheBuilder
	matcher     reconcile.BatchMatcher
	includeYear bool
}

func NewService(log zerolog.Logger, cfg *domain.Config, paths *domain.Paths, stores domain.StoreRepository, cache domain.CacheBuilder, matcher reconcile.BatchMatcher) Service {
	return &service{
		log:         log.With().Str("module", "repair").Logger(),
		paths:       paths,
		stores:      stores,
		cache:       cache,
		matcher:     matcher,
		includeYear: cfg.IncludeYear,
	}
}

func (s *service) CheckErrors(ctx context.Context, storePath string) ([]domain.ErrorEntry, error) {
	lines, err := s.stores.ReadLines(ctx, storePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load store")
	}
	return FindErrors(lines), nil
}

// FixErrors resolves [Error] lines from the match cache, then looks up the
// rest. Repaired lines replace the originals in place and the store is
// rewritten once.
func (s *service) FixErrors(ctx context.Context, storePath string) (domain.RepairReport, error) {
	report := domain.RepairReport{Store: s.paths.StoreName(storePath)}

	lines, err := s.stores.ReadLines(ctx, storePath)
	if err != nil {
		return report, errors.Wrap(err, "failed to load store")
	}

	entries := FindErrors(lines)
	report.Found = len(entries)
	if len(entries) == 0 {
		s.log.Debug().Str("store", report.Store).Msg("no error lines")
		return report, nil
	}

	mc, err := s.cache.Build(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("match cache unavailable, looking up everything")
		mc = domain.MatchCache{}
	}

	var misses []domain.ErrorEntry
	for _, e := range entries {
		if m, ok := mc.Lookup(e.Title); ok {
			lines[e.Index] = domain.FormatStoreLine(e.Title, m, true, s.includeYear)
			report.FromCache++
			continue
		}
		misses = append(misses, e)
	}

	if len(misses) > 0 {
		titles := make([]string, len(misses))
		for i, e := range misses {
			titles[i] = e.Title
		}

		size := pool.Scaled(len(titles), minWorkers, maxWorkers)
		s.log.Info().Str("store", report.Store).Int("titles", len(titles)).Int("workers", size).Msg("looking up error lines")

		for i, m := range s.matcher.MatchAll(ctx, titles, size) {
			if !m.Matched {
				report.Remaining++
				continue
			}
			lines[misses[i].Index] = domain.FormatStoreLine(misses[i].Title, m, true, s.includeYear)
			report.FromLookup++
		}
	}

	if report.Fixed() > 0 {
		if err := s.stores.Rewrite(ctx, storePath, lines); err != nil {
			return report, errors.Wrap(err, "failed to rewrite store")
		}
	}

	s.log.Info().
		Str("store", report.Store).
		Int("found", report.Found).
		Int("cached", report.FromCache).
		Int("looked_up", report.FromLookup).
		Int("remaining", report.Remaining).
		Msg("error repair complete")

	return report, nil
}

// FindErrors returns the lines carrying the error marker.
func FindErrors(lines []string) []domain.ErrorEntry {
	var out []domain.ErrorEntry
	for i, raw := range lines {
		l := domain.ParseStoreLine(raw)
		if !l.IsError() || l.Title == "" {
			continue
		}
		out = append(out, domain.ErrorEntry{Index: i, Title: l.Title, Line: raw})
	}
	return out
}
