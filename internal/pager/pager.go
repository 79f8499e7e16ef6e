package pager

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/extract"
	"github.com/varoOP/cinelist/internal/pool"
	"github.com/varoOP/cinelist/internal/site"
)

// lightweightEmptyLimit bounds incremental paging of single-pass sites.
const lightweightEmptyLimit = 3

var ErrUnsupportedSite = errors.New("unsupported site")

type Service interface {
	Scrape(ctx context.Context, target domain.ScrapeTarget) ([]string, error)
}

type service struct {
	log      zerolog.Logger
	cfg      domain.PagerConfig
	source   PageSource
	renderer domain.Renderer
}

// NewService builds a pager. renderer may be nil, in which case single-pass
// sites have no fallback when the lightweight fetch finds nothing.
func NewService(log zerolog.Logger, cfg domain.PagerConfig, source PageSource, renderer domain.Renderer) Service {
	return &service{
		log:      log.With().Str("module", "pager").Logger(),
		cfg:      cfg,
		source:   source,
		renderer: renderer,
	}
}

// Scrape walks target to its end and returns every distinct title in first
// seen order. Fetch failures only shorten the result; the only error is an
// unsupported site.
func (s *service) Scrape(ctx context.Context, target domain.ScrapeTarget) ([]string, error) {
	profile, ok := site.ProfileFor(target.Site)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedSite, "%s", target.URL)
	}

	s.log.Info().Str("url", target.URL).Str("site", string(target.Site)).Msg("scraping list")

	var titles []string
	if profile.SinglePass {
		titles = s.singlePass(ctx, target, profile)
	} else {
		titles = s.paged(ctx, target, profile)
	}

	s.log.Info().Str("url", target.URL).Int("titles", len(titles)).Msg("scrape complete")
	return titles, nil
}

// walk is the running state of one scrape.
type walk struct {
	seen   map[string]struct{}
	titles []string
	stall  int
}

func newWalk() *walk {
	return &walk{seen: map[string]struct{}{}}
}

// merge adds unseen titles and returns how many were new.
func (w *walk) merge(titles []string) int {
	added := 0
	for _, t := range titles {
		if _, ok := w.seen[t]; ok {
			continue
		}
		w.seen[t] = struct{}{}
		w.titles = append(w.titles, t)
		added++
	}
	return added
}

func (s *service) paged(ctx context.Context, target domain.ScrapeTarget, profile site.Profile) []string {
	window := profile.Window
	if window == 0 {
		window = s.cfg.Window
	}
	if window < 1 {
		window = 1
	}

	w := newWalk()
	page := 1
	for {
		pages := make([]int, window)
		for i := range pages {
			pages[i] = page + i
		}

		results := pool.Run(ctx, window, pages, func(ctx context.Context, p int) domain.PageResult {
			return s.source.Page(ctx, target, p)
		})

		for _, res := range results {
			if s.handle(ctx, target, profile, w, res) {
				return w.titles
			}
		}

		page += window
		if err := domain.Sleep(ctx, s.cfg.Delay); err != nil {
			return w.titles
		}
	}
}

// handle applies one page result to w and reports whether the walk is over.
func (s *service) handle(ctx context.Context, target domain.ScrapeTarget, profile site.Profile, w *walk, res domain.PageResult) bool {
	log := s.log.With().Str("url", target.URL).Int("page", res.Page).Logger()

	if res.RateLimited() {
		log.Warn().Dur("pause", s.cfg.RateLimitPause).Msg("rate limited, retrying page once")
		if err := domain.Sleep(ctx, s.cfg.RateLimitPause); err != nil {
			return true
		}
		res = s.source.Page(ctx, target, res.Page)
		if res.Outcome == domain.OutcomeTransient {
			w.stall++
			log.Warn().Err(res.Err).Int("stall", w.stall).Msg("retry failed")
			return w.stall >= s.cfg.MaxStall
		}
	}

	switch res.Outcome {
	case domain.OutcomeTerminate:
		log.Info().Str("reason", res.Termination.String()).Msg("end of list")
		return true

	case domain.OutcomeTransient:
		if res.NotFound() && res.Page > 1 && profile.StopOnNotFound {
			log.Info().Msg("no more pages")
			return true
		}
		w.stall++
		log.Warn().Err(res.Err).Int("stall", w.stall).Msg("page failed")

	default:
		if len(res.Titles) == 0 {
			w.stall++
			log.Debug().Int("stall", w.stall).Msg("empty page")
			break
		}
		added := w.merge(res.Titles)
		switch {
		case added > 0:
			w.stall = 0
			log.Debug().Int("new", added).Msg("page merged")
		case profile.StallOnRepeats:
			w.stall++
			log.Debug().Int("stall", w.stall).Msg("page only repeated earlier titles")
		}
	}

	return w.stall >= s.cfg.MaxStall
}

// singlePass fetches page 1 once. Nothing there means the list is rendered
// client side, so the renderer gets the whole list in one go. Otherwise the
// following pages are walked until a few come back empty.
func (s *service) singlePass(ctx context.Context, target domain.ScrapeTarget, profile site.Profile) []string {
	w := newWalk()

	first := s.source.Page(ctx, target, 1)
	if first.Outcome != domain.OutcomeTitles || len(first.Titles) == 0 {
		return s.render(ctx, target)
	}
	w.merge(first.Titles)

	if !s.cfg.LetterboxdPaginate {
		return w.titles
	}

	empty := 0
	for page := 2; empty < lightweightEmptyLimit; page++ {
		if err := domain.Sleep(ctx, s.cfg.Delay); err != nil {
			break
		}

		res := s.source.Page(ctx, target, page)
		switch {
		case res.Outcome == domain.OutcomeTerminate:
			return w.titles
		case res.NotFound() && profile.StopOnNotFound:
			return w.titles
		case res.Outcome == domain.OutcomeTitles && w.merge(res.Titles) > 0:
			empty = 0
		default:
			empty++
		}
	}

	return w.titles
}

func (s *service) render(ctx context.Context, target domain.ScrapeTarget) []string {
	if s.renderer == nil {
		s.log.Warn().Str("url", target.URL).Msg("no titles found and rendering is disabled")
		return nil
	}

	s.log.Info().Str("url", target.URL).Msg("falling back to browser rendering")
	html, err := s.renderer.Render(ctx, target.URL)
	if err != nil {
		s.log.Warn().Err(err).Str("url", target.URL).Msg("rendering failed")
		return nil
	}

	titles, strategy := extract.Rendered(html)
	w := newWalk()
	w.merge(titles)
	s.log.Debug().Str("strategy", strategy).Int("titles", len(w.titles)).Msg("rendered page extracted")
	return w.titles
}
