package domain

import (
	"context"
	"time"
)

type FetchOptions struct {
	Timeout time.Duration
	Headers map[string]string
}

// PageFetcher retrieves a page body. Failures are returned as *FetchError.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, opts FetchOptions) ([]byte, error)
}

// Renderer loads a page in a browser and returns the rendered document.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// Matcher resolves a title. It never fails; unresolved titles yield ErrorSentinel.
type Matcher interface {
	Match(ctx context.Context, title string) MatchResult
}
