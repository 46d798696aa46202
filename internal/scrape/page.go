package scrape

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrElementNotFound is returned when a required element never appears on a
// page. Callers treat a listing page without its container as end of content.
var ErrElementNotFound = errors.New("element not found")

// Pagination controls live in the same list as product items on the target
// site. Items carrying any of these class tokens are skipped.
var defaultSkipClassTokens = []string{"pager", "next", "current", "prev"}

// PageExtractor pulls product links out of a listing page, in document order.
type PageExtractor struct {
	ContainerSelector string
	ItemSelector      string
	// SkipClassTokens overrides the default pagination-control filter.
	SkipClassTokens []string
}

// Extract returns the absolute href of the first anchor inside each item.
// Items without an anchor are skipped individually; an empty result is not an
// error. The container being absent is.
func (e *PageExtractor) Extract(pageURL, html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	container := doc.Find(e.ContainerSelector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: container %q", ErrElementNotFound, e.ContainerSelector)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	skip := e.SkipClassTokens
	if skip == nil {
		skip = defaultSkipClassTokens
	}

	hrefs := []string{}
	container.Find(e.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		class, _ := item.Attr("class")
		if containsAnyToken(class, skip) {
			return
		}
		href, ok := item.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}
		abs, err := toAbsoluteURL(base, href)
		if err != nil {
			return
		}
		hrefs = append(hrefs, abs)
	})
	return hrefs, nil
}

func containsAnyToken(class string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(class, tok) {
			return true
		}
	}
	return false
}

func toAbsoluteURL(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
