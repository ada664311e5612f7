package scraper

import (
	"context"
	"time"
)

// Fetcher loads one rendered search-results page. Implementations drive a
// real browser or HTTP client; each call may take seconds.
type Fetcher interface {
	Fetch(ctx context.Context, query SearchQuery, pageIndex int) (Page, error)
}

// Detector decides whether a statically fetched page needs a headless
// re-fetch before extraction can be trusted.
type Detector interface {
	NeedsJS(ctx context.Context, page Page) bool
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
