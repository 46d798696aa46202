package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserSession owns one headless browser. Sessions are never shared across
// jobs and never reused after a job finishes.
type BrowserSession struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	pageTimeout   time.Duration
	settleDelay   time.Duration
}

func NewBrowserSession(ctx context.Context, pageTimeout, settleDelay time.Duration) *BrowserSession {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &BrowserSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		pageTimeout:   pageTimeout,
		settleDelay:   settleDelay,
	}
}

// Load navigates to url, waits for the body plus the settle delay, and
// returns the rendered HTML.
func (s *BrowserSession) Load(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(s.browserCtx, s.pageTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Sleep(s.settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", url, err)
	}
	return html, nil
}

// Close releases the browser and its allocator.
func (s *BrowserSession) Close() {
	s.browserCancel()
	s.allocCancel()
}

// ChromeSessionFactory returns a SessionFactory backed by headless Chrome.
func ChromeSessionFactory(pageTimeout, settleDelay time.Duration) SessionFactory {
	return func(ctx context.Context) (Loader, func(), error) {
		s := NewBrowserSession(ctx, pageTimeout, settleDelay)
		return s, s.Close, nil
	}
}
