package scraper

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CollyFetcher retrieves results pages over plain HTTP. It is the cheap path
// for markup that arrives server-rendered; the site's anti-bot layer decides
// how far it gets.
type CollyFetcher struct {
	cfg           FetcherConfig
	baseCollector *colly.Collector
	limiter       *rate.Limiter
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based fetcher.
func NewCollyFetcher(cfg FetcherConfig, logger *zap.Logger) (*CollyFetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          8,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &CollyFetcher{
		cfg:           cfg,
		baseCollector: base,
		limiter:       newPageLimiter(cfg.PageDelay),
		logger:        logger,
	}, nil
}

// Close implements the closable fetcher shape; Colly holds no resources that
// outlive its collectors.
func (f *CollyFetcher) Close(context.Context) error {
	return nil
}

// Fetch retrieves one results page via a cloned collector.
func (f *CollyFetcher) Fetch(ctx context.Context, query SearchQuery, pageIndex int) (Page, error) {
	page, err := f.fetchRaw(ctx, query, pageIndex)
	if err != nil {
		return Page{}, err
	}
	if err := verifyResultsPage(page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// fetchRaw performs the HTTP exchange without verifying the results markup,
// so the auto fetcher can inspect degraded bodies before promoting.
func (f *CollyFetcher) fetchRaw(ctx context.Context, query SearchQuery, pageIndex int) (Page, error) {
	rawURL := query.URL(f.cfg.BaseURL, pageIndex)

	if err := f.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}

	start := time.Now()
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		page := Page{
			URL:        rawURL,
			PageIndex:  pageIndex,
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
			FetchedAt:  start.UTC(),
			Duration:   time.Since(start),
		}
		send(fetchResult{page: page})
	})

	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return Page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		if res.err != nil {
			return Page{}, res.err
		}
		f.logger.Debug("static page fetched",
			zap.Int("page", pageIndex),
			zap.Int("status", res.page.StatusCode),
			zap.Duration("dur", res.page.Duration))
		return res.page, nil
	default:
		return Page{}, errors.New("colly fetch produced no result")
	}
}

type fetchResult struct {
	page Page
	err  error
}
