package scrape

import "context"

// Loader fetches a fully rendered page and returns its HTML source.
type Loader interface {
	Load(ctx context.Context, url string) (string, error)
}

// SessionFactory opens one page loader per scrape job. The returned release
// function must be called on every exit path.
type SessionFactory func(ctx context.Context) (loader Loader, release func(), err error)
