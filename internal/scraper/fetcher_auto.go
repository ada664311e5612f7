package scraper

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type headlessFetcher interface {
	Fetcher
	Close(context.Context) error
}

// AutoFetcher probes each page over plain HTTP first and promotes the run to
// headless rendering the moment the detector flags a degraded body. Promotion
// is sticky: once the site has demanded JS the cheap path stays off for the
// rest of the run, and the browser is launched only on first promotion.
type AutoFetcher struct {
	probe    func(ctx context.Context, query SearchQuery, pageIndex int) (Page, error)
	detector Detector
	logger   *zap.Logger

	newHeadless func() (headlessFetcher, error)
	headless    headlessFetcher
	promoted    bool
}

// NewAutoFetcher builds the probing fetcher. The headless browser is not
// started here; it launches lazily on the first promotion.
func NewAutoFetcher(cfg FetcherConfig, detector Detector, logger *zap.Logger) (*AutoFetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	static, err := NewCollyFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &AutoFetcher{
		probe:    static.fetchRaw,
		detector: detector,
		logger:   logger,
		newHeadless: func() (headlessFetcher, error) {
			return NewChromedpFetcher(cfg, logger)
		},
	}, nil
}

// Close releases the headless browser if it was ever launched.
func (f *AutoFetcher) Close(ctx context.Context) error {
	if f == nil {
		return nil
	}
	if f.headless != nil {
		return f.headless.Close(ctx)
	}
	return nil
}

// Fetch returns one verified results page, choosing the transport per the
// promotion state.
func (f *AutoFetcher) Fetch(ctx context.Context, query SearchQuery, pageIndex int) (Page, error) {
	if f.promoted {
		return f.headless.Fetch(ctx, query, pageIndex)
	}

	page, err := f.probe(ctx, query, pageIndex)
	if err == nil && !f.detector.NeedsJS(ctx, page) {
		if verr := verifyResultsPage(page); verr == nil {
			return page, nil
		}
	}
	if err != nil {
		f.logger.Info("static fetch failed, promoting to headless",
			zap.Int("page", pageIndex), zap.Error(err))
	} else {
		f.logger.Info("degraded static body, promoting to headless",
			zap.Int("page", pageIndex), zap.Int("bytes", len(page.Body)))
	}

	if perr := f.promote(); perr != nil {
		return Page{}, perr
	}
	return f.headless.Fetch(ctx, query, pageIndex)
}

func (f *AutoFetcher) promote() error {
	headless, err := f.newHeadless()
	if err != nil {
		return fmt.Errorf("launch headless browser: %w", err)
	}
	f.headless = headless
	f.promoted = true
	TotalHeadlessPromotions.Inc()
	return nil
}
