package reconcile

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/pool"
)

const (
	minWorkers = 8
	maxWorkers = 32
)

// BatchMatcher resolves many titles at once, keeping input order.
type BatchMatcher interface {
	MatchAll(ctx context.Context, titles []string, size int) []domain.MatchResult
}

type Service interface {
	Reconcile(ctx context.Context, titles []string, storePath string, opts domain.ReconcileOptions) (domain.ReconcileResult, error)
}

type service struct {
	log     zerolog.Logger
	paths   *domain.Paths
	stores  domain.StoreRepository
	journal domain.JournalRepository
	cache   domain.CacheBuilder
	matcher BatchMatcher
}

func NewService(log zerolog.Logger, paths *domain.Paths, stores domain.StoreRepository, journal domain.JournalRepository, cache domain.CacheBuilder, matcher BatchMatcher) Service {
	return &service{
		log:     log.With().Str("module", "reconcile").Logger(),
		paths:   paths,
		stores:  stores,
		journal: journal,
		cache:   cache,
		matcher: matcher,
	}
}

// Reconcile appends the titles not yet in the store, in scrape order, and
// records them in the journal.
func (s *service) Reconcile(ctx context.Context, titles []string, storePath string, opts domain.ReconcileOptions) (domain.ReconcileResult, error) {
	var res domain.ReconcileResult

	lines, err := s.stores.ReadLines(ctx, storePath)
	if err != nil {
		return res, errors.Wrap(err, "failed to load store")
	}

	present := newPresence(lines)
	var fresh []string
	for _, t := range titles {
		if t == "" {
			continue
		}
		if present.has(t) {
			res.Skipped++
			continue
		}
		present.add(t)
		fresh = append(fresh, t)
	}

	if len(fresh) == 0 {
		s.log.Info().Str("store", storePath).Int("skipped", res.Skipped).Msg("nothing new")
		return res, nil
	}

	matches := make([]domain.MatchResult, len(fresh))
	if opts.Resolve {
		res.CacheHits = s.resolve(ctx, fresh, matches)
	}

	out := make([]string, 0, len(fresh))
	entries := make(map[string]domain.JournalEntry, len(fresh))
	for i, t := range fresh {
		line := domain.FormatStoreLine(t, matches[i], opts.Resolve, opts.IncludeYear)
		// "Heat" and "Heat (1995)" can format to the same line.
		if !present.claim(domain.ParseStoreLine(line).Key()) {
			res.Skipped++
			continue
		}
		out = append(out, line)
		entries[t] = domain.JournalEntry{Matched: opts.Resolve && matches[i].Matched}
	}

	if err := s.stores.Append(ctx, storePath, out); err != nil {
		return res, errors.Wrap(err, "failed to append to store")
	}
	res.New = len(out)

	if err := s.journal.MergeJournal(ctx, s.paths.JournalPath, s.paths.StoreName(storePath), entries); err != nil {
		s.log.Warn().Err(err).Str("store", storePath).Msg("failed to update journal")
	}

	s.log.Info().
		Str("store", storePath).
		Int("new", res.New).
		Int("skipped", res.Skipped).
		Int("cached", res.CacheHits).
		Msg("reconcile complete")

	return res, nil
}

// resolve fills matches from the cache first and the matcher for the rest.
// It returns the number of cache hits.
func (s *service) resolve(ctx context.Context, titles []string, matches []domain.MatchResult) int {
	mc, err := s.cache.Build(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("match cache unavailable, resolving everything")
		mc = domain.MatchCache{}
	}

	hits := 0
	var missIdx []int
	var misses []string
	for i, t := range titles {
		if m, ok := mc.Lookup(t); ok {
			matches[i] = m
			hits++
			continue
		}
		missIdx = append(missIdx, i)
		misses = append(misses, t)
	}

	if len(misses) > 0 {
		size := pool.Scaled(len(misses), minWorkers, maxWorkers)
		s.log.Info().Int("titles", len(misses)).Int("workers", size).Msg("looking up metadata")
		for j, m := range s.matcher.MatchAll(ctx, misses, size) {
			matches[missIdx[j]] = m
		}
	}

	return hits
}

// presence answers whether a scraped title is already in a store. A title
// without a year also matches a stored line whose base title equals it, since
// the year may have been appended on resolution.
type presence struct {
	exact map[string]struct{}
	bases map[string]struct{}
	keys  map[domain.CanonicalKey]struct{}
}

func newPresence(lines []string) *presence {
	p := &presence{
		exact: map[string]struct{}{},
		bases: map[string]struct{}{},
		keys:  map[domain.CanonicalKey]struct{}{},
	}
	for _, raw := range lines {
		l := domain.ParseStoreLine(raw)
		if l.Title == "" {
			continue
		}
		p.exact[l.Title] = struct{}{}
		p.keys[l.Key()] = struct{}{}
		if l.Year > 0 {
			p.bases[l.Base] = struct{}{}
		}
	}
	return p
}

func (p *presence) has(title string) bool {
	if _, ok := p.exact[title]; ok {
		return true
	}
	if domain.TitleYear(title) == 0 {
		_, ok := p.bases[title]
		return ok
	}
	return false
}

func (p *presence) add(title string) {
	p.exact[title] = struct{}{}
}

// claim reserves key for a line about to be written. It reports false when
// the store or the current batch already holds a line with that key.
func (p *presence) claim(key domain.CanonicalKey) bool {
	if _, ok := p.keys[key]; ok {
		return false
	}
	p.keys[key] = struct{}{}
	return true
}
