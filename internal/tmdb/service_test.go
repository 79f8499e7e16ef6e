package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/cinelist/internal/domain"
)

type fakeAPI struct {
	mu      sync.Mutex
	queries []string
	handler func(kind, query string, call int) (int, *SearchResponse)
	calls   atomic.Int32
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))

		kind := r.URL.Path[len("/3/search/"):]
		query := r.URL.Query().Get("query")
		call := int(f.calls.Add(1))

		f.mu.Lock()
		f.queries = append(f.queries, kind+":"+query)
		f.mu.Unlock()

		status, body := f.handler(kind, query, call)
		w.WriteHeader(status)
		if body != nil {
			json.NewEncoder(w).Encode(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(baseURL string, delay time.Duration) Service {
	log := zerolog.Nop()
	cfg := &domain.Config{TmdbMaxRetries: 3, TmdbRetryDelay: delay}
	return NewService(log, cfg, NewClient(log, "key", baseURL+"/3"))
}

func hit(id int, release, firstAir string) *SearchResponse {
	return &SearchResponse{Results: []SearchResult{{ID: id, ReleaseDate: release, FirstAirDate: firstAir}}, TotalResults: 1}
}

func TestMatchSeriesFirst(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{handler: func(kind, query string, _ int) (int, *SearchResponse) {
		if kind == "tv" {
			return http.StatusOK, hit(1399, "", "2011-04-17")
		}
		return http.StatusOK, hit(9, "1999-01-01", "")
	}}
	srv := api.server(t)

	m := newTestService(srv.URL, time.Millisecond).Match(context.Background(), "Game of Thrones")
	assert.Equal(t, domain.MatchResult{Matched: true, ID: 1399, Kind: domain.MediaTV, Year: 2011}, m)
	assert.Equal(t, []string{"tv:Game of Thrones"}, api.queries)
}

func TestMatchFallsBackToCleanedTitleThenMovie(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{handler: func(kind, query string, _ int) (int, *SearchResponse) {
		if kind == "movie" && query == "Spider-Man: Homecoming (2017)" {
			return http.StatusOK, hit(315635, "2017-07-05", "")
		}
		return http.StatusOK, &SearchResponse{}
	}}
	srv := api.server(t)

	m := newTestService(srv.URL, time.Millisecond).Match(context.Background(), "Spider-Man: Homecoming (2017)")
	assert.Equal(t, domain.MatchResult{Matched: true, ID: 315635, Kind: domain.MediaMovie, Year: 2017}, m)
	assert.Equal(t, []string{
		"tv:Spider-Man: Homecoming (2017)",
		"tv:SpiderMan: Homecoming 2017",
		"movie:Spider-Man: Homecoming (2017)",
	}, api.queries)
}

func TestMatchNoHitsIsErrorSentinel(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{handler: func(string, string, int) (int, *SearchResponse) {
		return http.StatusOK, &SearchResponse{}
	}}
	srv := api.server(t)

	m := newTestService(srv.URL, time.Millisecond).Match(context.Background(), "Nothing At All")
	assert.Equal(t, domain.ErrorSentinel, m)
	assert.False(t, m.Matched)
	assert.Len(t, api.queries, 2)
}

func TestMatchBacksOffOnRateLimit(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{handler: func(_, _ string, call int) (int, *SearchResponse) {
		if call <= 2 {
			return http.StatusTooManyRequests, nil
		}
		return http.StatusOK, hit(42, "", "2020-02-02")
	}}
	srv := api.server(t)

	delay := 20 * time.Millisecond
	start := time.Now()
	m := newTestService(srv.URL, delay).Match(context.Background(), "Devs")
	elapsed := time.Since(start)

	require.True(t, m.Matched)
	assert.Equal(t, 42, m.ID)
	assert.GreaterOrEqual(t, elapsed, delay*1+delay*2)
}

func TestMatchSkipsPauseAfterLastAttempt(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{handler: func(string, string, int) (int, *SearchResponse) {
		return http.StatusTooManyRequests, nil
	}}
	srv := api.server(t)

	delay := 50 * time.Millisecond
	start := time.Now()
	m := newTestService(srv.URL, delay).Match(context.Background(), "Throttled")
	elapsed := time.Since(start)

	assert.Equal(t, domain.ErrorSentinel, m)
	assert.EqualValues(t, 6, api.calls.Load())
	// two pauses per category (1x and 2x), none after the third attempt
	assert.GreaterOrEqual(t, elapsed, 2*(delay+2*delay))
	assert.Less(t, elapsed, 2*(delay+2*delay+4*delay))
}

func TestMatchExhaustsRetries(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{handler: func(string, string, int) (int, *SearchResponse) {
		return http.StatusInternalServerError, nil
	}}
	srv := api.server(t)

	m := newTestService(srv.URL, time.Millisecond).Match(context.Background(), "Broken")
	assert.Equal(t, domain.ErrorSentinel, m)
	assert.Equal(t, int32(6), api.calls.Load())
}

func TestMatchAllKeepsOrder(t *testing.T) {
	t.Parallel()

	ids := map[string]int{"A": 1, "B": 2, "C": 3}
	api := &fakeAPI{handler: func(kind, query string, _ int) (int, *SearchResponse) {
		if id, ok := ids[query]; ok && kind == "movie" {
			return http.StatusOK, hit(id, "2000-01-01", "")
		}
		return http.StatusOK, &SearchResponse{}
	}}
	srv := api.server(t)

	results := newTestService(srv.URL, time.Millisecond).MatchAll(context.Background(), []string{"C", "A", "Z", "B"}, 4)
	require.Len(t, results, 4)
	assert.Equal(t, 3, results[0].ID)
	assert.Equal(t, 1, results[1].ID)
	assert.False(t, results[2].Matched)
	assert.Equal(t, 2, results[3].ID)
}

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Amélie 2001", CleanTitle(`"Amélie" (2001)`))
	assert.Equal(t, "XMen  Days", CleanTitle("X-Men – Days"))
	assert.Equal(t, "REC", CleanTitle("[REC]"))
}

func TestSearchResultYear(t *testing.T) {
	t.Parallel()

	r := SearchResult{ReleaseDate: "1999-03-31", FirstAirDate: "bad"}
	assert.Equal(t, 1999, r.Year(domain.MediaMovie))
	assert.Equal(t, 0, r.Year(domain.MediaTV))
}

func TestClientRateLimitOption(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{handler: func(string, string, int) (int, *SearchResponse) {
		return http.StatusOK, &SearchResponse{}
	}}
	srv := api.server(t)

	c := NewClient(zerolog.Nop(), "key", srv.URL+"/3", WithRateLimit(20))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Search(context.Background(), domain.MediaMovie, "x")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
