package pager

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/extract"
	"github.com/varoOP/cinelist/internal/site"
)

// PageSource produces the result of one page of a list.
type PageSource interface {
	Page(ctx context.Context, target domain.ScrapeTarget, page int) domain.PageResult
}

// SiteSource fetches pages over HTTP and runs the site's extractor on them.
type SiteSource struct {
	log     zerolog.Logger
	fetcher domain.PageFetcher
	extra   map[domain.Site]map[string]string
}

func NewSiteSource(log zerolog.Logger, fetcher domain.PageFetcher) *SiteSource {
	return &SiteSource{
		log:     log.With().Str("module", "pager").Logger(),
		fetcher: fetcher,
		extra:   map[domain.Site]map[string]string{},
	}
}

// WithHeaders adds headers to every request sent to site, on top of the
// site profile's own.
func (s *SiteSource) WithHeaders(site domain.Site, headers map[string]string) *SiteSource {
	if s.extra[site] == nil {
		s.extra[site] = map[string]string{}
	}
	for k, v := range headers {
		s.extra[site][k] = v
	}
	return s
}

func (s *SiteSource) headers(profile site.Profile) map[string]string {
	extra := s.extra[profile.Site]
	if len(extra) == 0 {
		return profile.Headers
	}
	out := make(map[string]string, len(profile.Headers)+len(extra))
	for k, v := range profile.Headers {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (s *SiteSource) Page(ctx context.Context, target domain.ScrapeTarget, page int) domain.PageResult {
	profile, _ := site.ProfileFor(target.Site)
	pageURL := site.PageURL(target, page)

	body, err := s.fetcher.Fetch(ctx, pageURL, domain.FetchOptions{
		Timeout: profile.Timeout,
		Headers: s.headers(profile),
	})
	if err != nil {
		s.log.Debug().Err(err).Str("url", pageURL).Int("page", page).Msg("page fetch failed")
		return domain.TransientPage(page, err)
	}

	res, strategy := extract.Page(target.Site, body, page)
	s.log.Debug().
		Str("url", pageURL).
		Int("page", page).
		Int("titles", len(res.Titles)).
		Str("strategy", strategy).
		Str("termination", res.Termination.String()).
		Msg("page extracted")

	return res
}
