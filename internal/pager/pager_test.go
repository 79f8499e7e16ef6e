package pager

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/fetch"
)

// scriptedSource answers page requests from a function of page number and
// how many times that page was asked for.
type scriptedSource struct {
	mu    sync.Mutex
	calls map[int]int
	fn    func(page, call int) domain.PageResult
}

func newScripted(fn func(page, call int) domain.PageResult) *scriptedSource {
	return &scriptedSource{calls: map[int]int{}, fn: fn}
}

func (s *scriptedSource) Page(_ context.Context, _ domain.ScrapeTarget, page int) domain.PageResult {
	s.mu.Lock()
	s.calls[page]++
	call := s.calls[page]
	s.mu.Unlock()
	return s.fn(page, call)
}

func (s *scriptedSource) called(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[page]
}

func testConfig(maxStall int) domain.PagerConfig {
	return domain.PagerConfig{
		Window:             3,
		RateLimitPause:     time.Millisecond,
		MaxStall:           maxStall,
		LetterboxdPaginate: true,
	}
}

func pages(lists ...[]string) func(page, call int) domain.PageResult {
	return func(page, _ int) domain.PageResult {
		if page <= len(lists) {
			return domain.TitlePage(page, lists[page-1])
		}
		return domain.TitlePage(page, nil)
	}
}

var (
	mdblist    = domain.ScrapeTarget{URL: "https://mdblist.com/lists/me/top", Site: domain.SiteMDBList}
	trakt      = domain.ScrapeTarget{URL: "https://trakt.tv/users/me/lists/watch", Site: domain.SiteTrakt}
	letterboxd = domain.ScrapeTarget{URL: "https://letterboxd.com/me/list/faves/", Site: domain.SiteLetterboxd}
)

func TestScrapeMergesUntilStall(t *testing.T) {
	t.Parallel()

	src := newScripted(pages([]string{"A", "B"}, []string{"B", "C"}, nil))
	titles, err := NewService(zerolog.Nop(), testConfig(1), src, nil).Scrape(context.Background(), mdblist)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, titles)
}

func TestScrapeProcessesPagesInOrder(t *testing.T) {
	t.Parallel()

	src := newScripted(func(page, _ int) domain.PageResult {
		switch page {
		case 1:
			time.Sleep(20 * time.Millisecond)
			return domain.TitlePage(page, []string{"A"})
		case 2:
			return domain.TitlePage(page, []string{"B"})
		case 3:
			return domain.TitlePage(page, []string{"C"})
		}
		return domain.TitlePage(page, nil)
	})

	titles, err := NewService(zerolog.Nop(), testConfig(2), src, nil).Scrape(context.Background(), mdblist)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, titles)
}

func TestScrapeStopsOnDuplicateContent(t *testing.T) {
	t.Parallel()

	src := newScripted(func(page, _ int) domain.PageResult {
		if page == 1 {
			return domain.TitlePage(page, []string{"A", "B"})
		}
		return domain.TerminatePage(page, domain.TerminationDuplicateContent)
	})

	titles, err := NewService(zerolog.Nop(), testConfig(5), src, nil).Scrape(context.Background(), trakt)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles)
	assert.Equal(t, 1, src.called(2))
	assert.Zero(t, src.called(3), "trakt pages one at a time")
}

func TestScrapeStopsOnNotFoundPastFirstPage(t *testing.T) {
	t.Parallel()

	src := newScripted(func(page, _ int) domain.PageResult {
		if page < 3 {
			return domain.TitlePage(page, []string{fmt.Sprintf("T%d", page)})
		}
		return domain.TransientPage(page, domain.NewFetchError("u", http.StatusNotFound, errors.New("Not Found")))
	})

	titles, err := NewService(zerolog.Nop(), testConfig(5), src, nil).Scrape(context.Background(), trakt)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, titles)
	assert.Zero(t, src.called(4))
}

func TestScrapeRetriesRateLimitedPageOnce(t *testing.T) {
	t.Parallel()

	src := newScripted(func(page, call int) domain.PageResult {
		if page == 1 && call == 1 {
			return domain.TransientPage(page, domain.NewFetchError("u", http.StatusTooManyRequests, errors.New("Too Many Requests")))
		}
		if page == 1 {
			return domain.TitlePage(page, []string{"A"})
		}
		return domain.TitlePage(page, nil)
	})

	titles, err := NewService(zerolog.Nop(), testConfig(1), src, nil).Scrape(context.Background(), trakt)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, titles)
	assert.Equal(t, 2, src.called(1))
}

func TestScrapeAbsorbsNetworkErrors(t *testing.T) {
	t.Parallel()

	src := newScripted(func(page, _ int) domain.PageResult {
		return domain.TransientPage(page, errors.New("connection reset"))
	})

	titles, err := NewService(zerolog.Nop(), testConfig(5), src, nil).Scrape(context.Background(), mdblist)
	require.NoError(t, err)
	assert.Empty(t, titles)
	assert.Equal(t, 1, src.called(5))
	assert.Zero(t, src.called(7))
}

func TestScrapeStallsOnRepeatedPages(t *testing.T) {
	t.Parallel()

	src := newScripted(func(page, _ int) domain.PageResult {
		return domain.TitlePage(page, []string{"Same"})
	})

	titles, err := NewService(zerolog.Nop(), testConfig(2), src, nil).Scrape(context.Background(), trakt)
	require.NoError(t, err)
	assert.Equal(t, []string{"Same"}, titles)
	assert.Zero(t, src.called(4))
}

func TestScrapeUnsupportedSite(t *testing.T) {
	t.Parallel()

	src := newScripted(pages())
	_, err := NewService(zerolog.Nop(), testConfig(1), src, nil).Scrape(context.Background(), domain.ScrapeTarget{URL: "https://example.com", Site: domain.SiteUnknown})
	assert.True(t, errors.Is(err, ErrUnsupportedSite))
	assert.Zero(t, src.called(1))
}

func TestSinglePassPaginates(t *testing.T) {
	t.Parallel()

	src := newScripted(pages([]string{"A (2001)", "B (2002)"}, []string{"C (2003)"}))
	titles, err := NewService(zerolog.Nop(), testConfig(5), src, nil).Scrape(context.Background(), letterboxd)
	require.NoError(t, err)
	assert.Equal(t, []string{"A (2001)", "B (2002)", "C (2003)"}, titles)
	assert.Equal(t, 1, src.called(5))
	assert.Zero(t, src.called(6))
}

func TestSinglePassWithoutPaging(t *testing.T) {
	t.Parallel()

	cfg := testConfig(5)
	cfg.LetterboxdPaginate = false
	src := newScripted(pages([]string{"A"}, []string{"B"}))
	titles, err := NewService(zerolog.Nop(), cfg, src, nil).Scrape(context.Background(), letterboxd)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, titles)
	assert.Zero(t, src.called(2))
}

type stubRenderer struct {
	html string
	err  error
	urls []string
}

func (r *stubRenderer) Render(_ context.Context, rawURL string) (string, error) {
	r.urls = append(r.urls, rawURL)
	return r.html, r.err
}

func TestSinglePassFallsBackToRenderer(t *testing.T) {
	t.Parallel()

	r := &stubRenderer{html: `<ul>
<li class="poster-container"><div class="film-poster" data-film-name="Stalker" data-film-release-year="1979"></div></li>
<li class="poster-container"><div class="film-poster" data-film-name="Mirror" data-film-release-year="1975"></div></li>
</ul>`}
	src := newScripted(pages())

	titles, err := NewService(zerolog.Nop(), testConfig(5), src, r).Scrape(context.Background(), letterboxd)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stalker (1979)", "Mirror (1975)"}, titles)
	assert.Equal(t, []string{letterboxd.URL}, r.urls)
	assert.Zero(t, src.called(2))
}

func TestSinglePassRendererFailure(t *testing.T) {
	t.Parallel()

	r := &stubRenderer{err: errors.New("no chrome")}
	src := newScripted(pages())

	titles, err := NewService(zerolog.Nop(), testConfig(5), src, r).Scrape(context.Background(), letterboxd)
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestSiteSourceOverHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		switch r.URL.Query().Get("q_current_page") {
		case "1":
			fmt.Fprint(w, `<div class="header movie-title">Alien (1979)</div><div class="header movie-title">Heat (1995)</div>`)
		case "2":
			fmt.Fprint(w, `<div class="header movie-title">Heat (1995)</div><div class="header movie-title">Ran (1985)</div>`)
		case "3":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprint(w, `<html></html>`)
		}
	}))
	defer srv.Close()

	log := zerolog.Nop()
	src := NewSiteSource(log, fetch.NewFetcher(log, &domain.Config{UserAgent: domain.DefaultUserAgent})).
		WithHeaders(domain.SiteMDBList, map[string]string{"X-API-KEY": "secret"})
	target := domain.ScrapeTarget{URL: srv.URL + "/lists/me/top", Site: domain.SiteMDBList}

	titles, err := NewService(log, testConfig(3), src, nil).Scrape(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alien", "Heat", "Ran"}, titles)
}
