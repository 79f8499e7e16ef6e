package tmdb

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/pool"
)

var fallbackPunctuation = regexp.MustCompile(`[\[\]"()–-]`)

type Searcher interface {
	Search(ctx context.Context, kind domain.MediaKind, query string) (*SearchResponse, error)
}

type Service interface {
	domain.Matcher
	MatchAll(ctx context.Context, titles []string, size int) []domain.MatchResult
}

type service struct {
	log        zerolog.Logger
	searcher   Searcher
	maxRetries int
	delay      time.Duration
}

func NewService(log zerolog.Logger, cfg *domain.Config, searcher Searcher) Service {
	retries := cfg.TmdbMaxRetries
	if retries < 1 {
		retries = 1
	}
	return &service{
		log:        log.With().Str("module", "tmdb").Logger(),
		searcher:   searcher,
		maxRetries: retries,
		delay:      cfg.TmdbRetryDelay,
	}
}

// Match tries the series category and then the film category.
func (s *service) Match(ctx context.Context, title string) domain.MatchResult {
	for _, kind := range []domain.MediaKind{domain.MediaTV, domain.MediaMovie} {
		if m, ok := s.search(ctx, title, kind); ok {
			s.log.Debug().Str("title", title).Str("kind", string(kind)).Int("id", m.ID).Msg("matched")
			return m
		}
	}
	s.log.Debug().Str("title", title).Msg("no match")
	return domain.ErrorSentinel
}

// MatchAll resolves titles on a pool of size workers; results keep input order.
func (s *service) MatchAll(ctx context.Context, titles []string, size int) []domain.MatchResult {
	return pool.Run(ctx, size, titles, s.Match)
}

func (s *service) search(ctx context.Context, title string, kind domain.MediaKind) (domain.MatchResult, bool) {
	query := title
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		resp, err := s.searcher.Search(ctx, kind, query)
		if err != nil {
			wait := s.delay
			if IsRateLimited(err) {
				wait = s.delay * time.Duration(1<<attempt)
				s.log.Warn().Str("title", title).Dur("pause", wait).Msg("rate limited")
			} else {
				s.log.Debug().Err(err).Str("title", title).Int("attempt", attempt+1).Msg("search failed")
			}
			if attempt == s.maxRetries-1 {
				break
			}
			if domain.Sleep(ctx, wait) != nil {
				return domain.ErrorSentinel, false
			}
			continue
		}

		if len(resp.Results) > 0 {
			r := resp.Results[0]
			return domain.MatchResult{Matched: true, ID: r.ID, Kind: kind, Year: r.Year(kind)}, true
		}

		// A clean miss is final once the stripped title has been tried.
		if query != title {
			return domain.ErrorSentinel, false
		}
		cleaned := CleanTitle(title)
		if cleaned == "" || cleaned == title {
			return domain.ErrorSentinel, false
		}
		query = cleaned
	}

	return domain.ErrorSentinel, false
}

// CleanTitle removes brackets, quotes, parentheses and dashes.
func CleanTitle(t string) string {
	return strings.TrimSpace(fallbackPunctuation.ReplaceAllString(t, ""))
}
