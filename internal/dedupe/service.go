package dedupe

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
)

type Service interface {
	CheckDupes(ctx context.Context, storePath string) ([]domain.DuplicateGroup, error)
	RemoveDupes(ctx context.Context, storePath string) (domain.DedupeReport, error)
}

type service struct {
	log    zerolog.Logger
	paths  *domain.Paths
	stores domain.StoreRepository
}

func NewService(log zerolog.Logger, paths *domain.Paths, stores domain.StoreRepository) Service {
	return &service{
		log:    log.With().Str("module", "dedupe").Logger(),
		paths:  paths,
		stores: stores,
	}
}

// CheckDupes reports duplicate groups without touching the store.
func (s *service) CheckDupes(ctx context.Context, storePath string) ([]domain.DuplicateGroup, error) {
	lines, err := s.stores.ReadLines(ctx, storePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load store")
	}
	return FindDuplicates(lines), nil
}

// RemoveDupes keeps one survivor per duplicate group and rewrites the store
// once, preserving order and blank lines.
func (s *service) RemoveDupes(ctx context.Context, storePath string) (domain.DedupeReport, error) {
	report := domain.DedupeReport{Store: s.paths.StoreName(storePath)}

	lines, err := s.stores.ReadLines(ctx, storePath)
	if err != nil {
		return report, errors.Wrap(err, "failed to load store")
	}

	groups := FindDuplicates(lines)
	report.Groups = len(groups)
	if len(groups) == 0 {
		s.log.Debug().Str("store", report.Store).Msg("no duplicates")
		return report, nil
	}

	drop := map[int]struct{}{}
	for _, g := range groups {
		keep := Survivor(g)
		for _, ref := range g.Lines {
			if ref.Number == keep.Number {
				continue
			}
			drop[ref.Number] = struct{}{}
			s.log.Debug().
				Str("store", report.Store).
				Int("line", ref.Number).
				Str("removed", ref.Raw).
				Str("kept", keep.Raw).
				Msg("removing duplicate")
		}
	}
	report.Found = len(drop)

	out := make([]string, 0, len(lines)-len(drop))
	for i, raw := range lines {
		if _, ok := drop[i+1]; ok {
			continue
		}
		out = append(out, raw)
	}

	if err := s.stores.Rewrite(ctx, storePath, out); err != nil {
		return report, errors.Wrap(err, "failed to rewrite store")
	}
	report.Removed = len(drop)

	s.log.Info().
		Str("store", report.Store).
		Int("groups", report.Groups).
		Int("removed", report.Removed).
		Msg("duplicates removed")

	return report, nil
}

// FindDuplicates groups non-blank lines by canonical key and returns the
// groups with more than one member, ordered by first occurrence. Line
// numbers are one based.
func FindDuplicates(lines []string) []domain.DuplicateGroup {
	index := map[domain.CanonicalKey]int{}
	var groups []domain.DuplicateGroup

	for i, raw := range lines {
		l := domain.ParseStoreLine(raw)
		if l.Blank() || l.Base == "" {
			continue
		}
		key := l.Key()
		ref := domain.LineRef{Number: i + 1, Raw: raw}
		if gi, ok := index[key]; ok {
			groups[gi].Lines = append(groups[gi].Lines, ref)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, domain.DuplicateGroup{Key: key, Lines: []domain.LineRef{ref}})
	}

	dupes := groups[:0]
	for _, g := range groups {
		if len(g.Lines) > 1 {
			dupes = append(dupes, g)
		}
	}
	if len(dupes) == 0 {
		return nil
	}
	return dupes
}

// Survivor picks the line to keep: the first line carrying an id, otherwise
// the first line that is not an error, otherwise the first line.
func Survivor(g domain.DuplicateGroup) domain.LineRef {
	plain := -1
	for i, ref := range g.Lines {
		l := domain.ParseStoreLine(ref.Raw)
		if l.HasID() {
			return ref
		}
		if plain < 0 && !l.IsError() {
			plain = i
		}
	}
	if plain >= 0 {
		return g.Lines[plain]
	}
	return g.Lines[0]
}
