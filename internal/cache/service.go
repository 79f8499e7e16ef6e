package cache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
)

// Service rebuilds the match cache by scanning every store under a root.
type Service struct {
	log  zerolog.Logger
	repo domain.StoreRepository
	root string
}

var _ domain.CacheBuilder = (*Service)(nil)

func NewService(log zerolog.Logger, repo domain.StoreRepository, root string) *Service {
	return &Service{
		log:  log.With().Str("module", "cache").Logger(),
		repo: repo,
		root: root,
	}
}

// Build maps base titles to the resolved entries found in stores. When a
// title is resolved in several places the last store in lexical order wins.
func (s *Service) Build(ctx context.Context) (domain.MatchCache, error) {
	stores, err := s.repo.ListStores(ctx, s.root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stores")
	}

	c := domain.MatchCache{}
	for _, path := range stores {
		lines, err := s.repo.ReadLines(ctx, path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable store")
			continue
		}
		Index(c, lines)
	}

	s.log.Debug().Int("stores", len(stores)).Int("entries", len(c)).Msg("match cache built")
	return c, nil
}

// Index records every resolved line of lines into c.
func Index(c domain.MatchCache, lines []string) {
	for _, raw := range lines {
		l := domain.ParseStoreLine(raw)
		if l.Base == "" {
			continue
		}
		if m, ok := l.Match(); ok {
			c[l.Base] = m
		}
	}
}
