// Package render loads list pages in headless Chrome for sites that only
// fill their lists with JavaScript.
package render

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
)

const settleDelay = 1500 * time.Millisecond

// Chrome implements domain.Renderer with chromedp.
type Chrome struct {
	log         zerolog.Logger
	userAgent   string
	timeout     time.Duration
	allocator   context.Context
	allocCancel context.CancelFunc
}

var _ domain.Renderer = (*Chrome)(nil)

func NewChrome(log zerolog.Logger, cfg *domain.Config) *Chrome {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1280, 900),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Chrome{
		log:         log.With().Str("module", "render").Logger(),
		userAgent:   cfg.UserAgent,
		timeout:     cfg.RenderTimeout,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

func (c *Chrome) Close() {
	c.allocCancel()
}

// Render navigates to rawURL and returns the document once it has settled.
func (c *Chrome) Render(ctx context.Context, rawURL string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(c.allocator)
	defer taskCancel()

	timeout := c.timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	taskCtx, cancel := context.WithTimeout(taskCtx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	c.log.Debug().Str("url", rawURL).Msg("rendering page")

	var html string
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if c.userAgent == "" {
				return nil
			}
			return emulation.SetUserAgentOverride(c.userAgent).Do(ctx)
		}),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", errors.Wrap(err, "chromedp run")
	}

	return html, nil
}
