package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
)

// The rating element carries a second CSS class encoding the star count as
// an English number word, e.g. "star-rating Three".
var ratingWords = map[string]int{
	"Zero":  0,
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// DetailExtractor extracts one product record from a detail page. Every field
// is guarded independently: a missing element yields the NotFound sentinel
// for that field only, never an error for the record.
type DetailExtractor struct {
	loader Loader
	logger *zap.Logger
}

func NewDetailExtractor(loader Loader, logger *zap.Logger) *DetailExtractor {
	return &DetailExtractor{loader: loader, logger: logger}
}

// Extract returns the product record for pageURL, or nil when the page itself
// cannot be loaded. Callers skip nil records and continue.
func (e *DetailExtractor) Extract(ctx context.Context, pageURL string) *domain.Product {
	html, err := e.loader.Load(ctx, pageURL)
	if err != nil {
		e.logger.Warn("failed to load product page", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn("failed to parse product page", zap.String("url", pageURL), zap.Error(err))
		return nil
	}

	p := &domain.Product{SourceURL: pageURL}
	p.Title = textOr(doc.Find("h1").First(), domain.NotFound)
	// The description is the fourth paragraph of the product article.
	p.Description = textOr(doc.Find("article.product_page").First().Find("p").Eq(3), domain.NotFound)
	p.Price = textOr(doc.Find(".price_color").First(), domain.NotFound)
	p.Rating = extractRating(doc)
	p.Availability = extractAvailability(doc)
	p.Category = textOr(doc.Find("div.page_inner ul.breadcrumb li").Eq(2), domain.NotFound)
	p.ImageURL = extractImageURL(doc, pageURL)
	return p
}

func textOr(s *goquery.Selection, fallback string) string {
	if s.Length() == 0 {
		return fallback
	}
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return fallback
	}
	return text
}

func extractRating(doc *goquery.Document) int {
	class, ok := doc.Find("p.star-rating").First().Attr("class")
	if !ok {
		return 0
	}
	tokens := strings.Fields(class)
	if len(tokens) < 2 {
		return 0
	}
	// Unknown words map to 0 via the zero value.
	return ratingWords[tokens[1]]
}

func extractAvailability(doc *goquery.Document) int {
	icon := doc.Find("p.instock.availability i").First()
	if icon.Length() == 0 {
		return 0
	}
	if class, _ := icon.Attr("class"); class != "" {
		return 1
	}
	return 0
}

func extractImageURL(doc *goquery.Document, pageURL string) string {
	src, ok := doc.Find("div.item.active img").First().Attr("src")
	if !ok || src == "" {
		return domain.NotFound
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return src
	}
	abs, err := toAbsoluteURL(base, src)
	if err != nil {
		return src
	}
	return abs
}
