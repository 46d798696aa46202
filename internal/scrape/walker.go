package scrape

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
)

// Walker drives page and detail extraction across a paginated listing. The
// walk always ends gracefully: it runs out of pages, hits the page cap, or
// the context is cancelled. Only a page that fails to load at all is an
// error, and that escalates to the job level.
type Walker struct {
	loader    Loader
	pages     *PageExtractor
	details   *DetailExtractor
	nextSel   string
	maxPages  int
	itemDelay time.Duration
	logger    *zap.Logger

	// OnPage, when set, is invoked after each listing page with the page
	// number and the running product total.
	OnPage func(page, total int)
}

func NewWalker(loader Loader, cfg domain.ScrapeConfig, itemDelay time.Duration, logger *zap.Logger) *Walker {
	return &Walker{
		loader: loader,
		pages: &PageExtractor{
			ContainerSelector: cfg.ContainerSelector,
			ItemSelector:      cfg.ItemSelector,
		},
		details:   NewDetailExtractor(loader, logger),
		nextSel:   cfg.NextPageSelector,
		maxPages:  cfg.MaxPages,
		itemDelay: itemDelay,
		logger:    logger,
	}
}

// Run walks the listing starting at startURL and returns every product it
// could collect. Cancellation is checked between pages and between items.
func (w *Walker) Run(ctx context.Context, startURL string) ([]domain.Product, error) {
	collected := []domain.Product{}
	current := startURL
	page := 1

	for current != "" && (w.maxPages <= 0 || page <= w.maxPages) {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		html, err := w.loader.Load(ctx, current)
		if err != nil {
			return collected, err
		}

		hrefs, err := w.pages.Extract(current, html)
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				// No container means no more content, not a failure.
				w.logger.Warn("listing container missing, ending walk",
					zap.String("url", current), zap.Int("page", page))
				break
			}
			return collected, err
		}
		if len(hrefs) == 0 {
			w.logger.Info("no product links on page, ending walk",
				zap.String("url", current), zap.Int("page", page))
			break
		}

		for _, href := range hrefs {
			if err := ctx.Err(); err != nil {
				return collected, err
			}
			if p := w.details.Extract(ctx, href); p != nil {
				collected = append(collected, *p)
			} else {
				w.logger.Warn("skipping product", zap.String("url", href))
			}
			sleepCtx(ctx, w.itemDelay)
		}

		w.logger.Info("page done",
			zap.Int("page", page), zap.Int("products", len(collected)))
		if w.OnPage != nil {
			w.OnPage(page, len(collected))
		}

		// Item navigation left the browsing context on a product page, so
		// reload the listing before looking for the next link.
		html, err = w.loader.Load(ctx, current)
		if err != nil {
			return collected, err
		}
		current = w.nextPageURL(current, html)
		page++
	}

	return collected, nil
}

// nextPageURL returns the absolute URL of the next listing page, or "" when
// pagination ends. Relative hrefs on the target site drop their /catalogue/
// prefix, so it is reattached here.
func (w *Walker) nextPageURL(pageURL, html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	href, ok := doc.Find(w.nextSel).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}

	base := pageURL
	if i := strings.Index(base, "/catalogue/"); i >= 0 {
		base = base[:i]
	} else if i := strings.LastIndex(base, "/"); i > len("https://") {
		base = base[:i]
	}
	return base + "/catalogue/" + strings.TrimPrefix(href, "catalogue/")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
