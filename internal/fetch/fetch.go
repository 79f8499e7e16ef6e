package fetch

import (
	"context"
	"time"

	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Fetcher retrieves list pages with a fresh colly collector per request.
type Fetcher struct {
	log             zerolog.Logger
	userAgent       string
	randomUserAgent bool
}

var _ domain.PageFetcher = (*Fetcher)(nil)

func NewFetcher(log zerolog.Logger, cfg *domain.Config) *Fetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = domain.DefaultUserAgent
	}
	return &Fetcher{
		log:             log.With().Str("module", "fetch").Logger(),
		userAgent:       ua,
		randomUserAgent: cfg.RandomUserAgent,
	}
}

// Fetch GETs rawURL. Non-2xx responses and transport failures come back as
// *domain.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts domain.FetchOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)
	if f.randomUserAgent {
		extensions.RandomUserAgent(c)
	}

	var (
		body     []byte
		fetchErr *domain.FetchError
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range opts.Headers {
			r.Headers.Set(k, v)
		}
		f.log.Debug().Str("url", r.URL.String()).Msg("visiting")
	})

	c.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = domain.NewFetchError(rawURL, status, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- c.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, domain.NewFetchError(rawURL, 0, ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			f.log.Debug().Str("url", rawURL).Int("status", fetchErr.StatusCode).Str("kind", fetchErr.Kind.String()).Msg("fetch failed")
			return nil, fetchErr
		}
		if err != nil {
			return nil, domain.NewFetchError(rawURL, 0, err)
		}
	}

	return body, nil
}
