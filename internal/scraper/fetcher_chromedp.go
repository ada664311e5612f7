package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FetcherConfig carries the transport knobs shared by the fetchers.
type FetcherConfig struct {
	BaseURL string
	// UserAgent is sent on every request, headless or static.
	UserAgent string
	// NavTimeout bounds one headless navigation, waits included.
	NavTimeout time.Duration
	// RequestTimeout bounds one static HTTP request.
	RequestTimeout time.Duration
	// PageDelay paces successive page fetches within a run.
	PageDelay time.Duration
}

// ChromedpFetcher renders results pages with headless Chrome. The browser is
// warmed once at construction; each Fetch opens a fresh tab so per-page state
// (cookies aside) cannot leak between pages.
type ChromedpFetcher struct {
	cfg             FetcherConfig
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	limiter         *rate.Limiter
	logger          *zap.Logger
}

// NewChromedpFetcher launches and warms the headless browser. Callers own the
// returned fetcher and must Close it on every exit path.
func NewChromedpFetcher(cfg FetcherConfig, logger *zap.Logger) (*ChromedpFetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpFetcher{
		cfg:             cfg,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		limiter:         newPageLimiter(cfg.PageDelay),
		logger:          logger,
	}, nil
}

// Close tears down the browser and its allocator.
func (f *ChromedpFetcher) Close(context.Context) error {
	if f == nil {
		return nil
	}
	f.browserCancel()
	f.allocatorCancel()
	return nil
}

// Fetch navigates a fresh tab to the given results page and returns the DOM
// snapshot after the card container (or the no-results marker) appears.
func (f *ChromedpFetcher) Fetch(ctx context.Context, query SearchQuery, pageIndex int) (Page, error) {
	rawURL := query.URL(f.cfg.BaseURL, pageIndex)

	if err := f.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("page pacing: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, f.cfg.NavTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	meta := newResponseMeta()
	f.recordResponse(tabCtx, meta)

	start := time.Now()
	html, err := f.navigate(taskCtx, rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("chromedp navigate: %w", err)
	}

	page := Page{
		URL:        rawURL,
		PageIndex:  pageIndex,
		StatusCode: meta.statusCode,
		Body:       []byte(html),
		UsedJS:     true,
		FetchedAt:  start.UTC(),
		Duration:   time.Since(start),
	}
	if err := verifyResultsPage(page); err != nil {
		return Page{}, err
	}
	f.logger.Debug("headless page fetched",
		zap.Int("page", pageIndex),
		zap.Int("status", page.StatusCode),
		zap.Duration("dur", page.Duration))
	return page, nil
}

func (f *ChromedpFetcher) navigate(ctx context.Context, rawURL string) (string, error) {
	var html string
	// The card container and the no-results banner never coexist; waiting on
	// either covers both the populated and the exhausted page.
	waitSel := selectorCard + ", " + selectorNoResults
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(f.cfg.UserAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(waitSel, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", err
	}
	return html, nil
}

type responseMeta struct {
	once       sync.Once
	statusCode int
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (f *ChromedpFetcher) recordResponse(tabCtx context.Context, meta *responseMeta) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.statusCode = int(resp.Response.Status)
		})
	})
}

// verifyResultsPage rejects bodies that carry neither job cards nor the
// explicit no-results marker, which is the signature of an interstitial or a
// site redesign.
func verifyResultsPage(page Page) error {
	if page.StatusCode >= 400 {
		return fmt.Errorf("results page returned status %d", page.StatusCode)
	}
	if !pageHasResultsShape(page.Body) {
		return fmt.Errorf("page %d lacks results markup", page.PageIndex)
	}
	return nil
}

func newPageLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
