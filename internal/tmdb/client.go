package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

var yearPattern = regexp.MustCompile(`^\d{4,4}`)

type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type SearchResult struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

// Year reads the four digit year from the date field that belongs to kind.
func (r SearchResult) Year(kind domain.MediaKind) int {
	date := r.ReleaseDate
	if kind == domain.MediaTV {
		date = r.FirstAirDate
	}
	y, err := strconv.Atoi(yearPattern.FindString(date))
	if err != nil {
		return 0
	}
	return y
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.StatusCode)
}

func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// Client talks to the search endpoints.
type Client struct {
	log        zerolog.Logger
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less means unlimited.
func WithRateLimit(rps float64) Option {
	return func(client *Client) {
		if rps > 0 {
			client.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func NewClient(log zerolog.Logger, apiKey, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		log:        log.With().Str("module", "tmdb").Logger(),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   "en-US",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) buildURL(kind domain.MediaKind, query string) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("language", c.language)
	return fmt.Sprintf("%s/search/%s?%s", c.baseURL, kind, params.Encode())
}

// Search runs one search request for query in the kind category.
func (c *Client) Search(ctx context.Context, kind domain.MediaKind, query string) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(kind, query), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	out := &SearchResponse{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	c.log.Trace().Str("kind", string(kind)).Str("query", query).Int("results", len(out.Results)).Msg("search")
	return out, nil
}
