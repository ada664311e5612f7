package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/diag"
)

// DriverConfig holds the per-run parameters of the pagination loop.
type DriverConfig struct {
	Query   SearchQuery
	BaseURL string
	// Cutoff is the earliest posted date a listing may have and still be
	// included; the zero time disables the date stopping rule.
	Cutoff time.Time
	// MaxPages bounds total pages fetched per run, independent of content.
	MaxPages int
}

// Driver owns the pagination loop: it fetches and extracts one page at a
// time, accumulates deduplicated listings, and stops on the first rule that
// fires. It is strictly sequential; the accumulator is never shared.
type Driver struct {
	cfg       DriverConfig
	fetcher   Fetcher
	extractor *Extractor
	clock     Clock
	logger    *zap.Logger
	diag      *diag.Emitter
}

// NewDriver constructs a Driver. The fetcher and extractor are capability
// interfaces so the loop is testable against scripted page sequences.
func NewDriver(
	cfg DriverConfig,
	fetcher Fetcher,
	extractor *Extractor,
	clock Clock,
	logger *zap.Logger,
	emitter *diag.Emitter,
) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		logger:    logger,
		diag:      emitter,
	}
}

// Run executes the pagination loop until a stopping rule fires or a fetch
// fails. A fetch failure is fatal and returns the partial accumulation only
// through the error path; callers must not write it to the sink.
//
// Stopping rules, checked in order per iteration:
//
//	(a) empty page: extraction yielded zero listings; the end of results.
//	(b) date cutoff: a listing resolved strictly older than the cutoff was
//	    seen; stop after finishing the current page (cards arrive in
//	    descending recency, so everything after it is older still).
//	(c) page ceiling: the configured maximum page count was reached.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	res := Result{}
	seenKeys := make(map[string]struct{})

	for pageIndex := 0; ; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		page, err := d.fetcher.Fetch(ctx, d.cfg.Query, pageIndex)
		if err != nil {
			return Result{}, &FetchError{PageIndex: pageIndex, URL: d.cfg.Query.URL(d.cfg.BaseURL, pageIndex), Err: err}
		}
		res.PagesFetched++
		TotalPagesFetched.Inc()

		listings := d.extractor.Extract(page, d.clock.Now())
		if len(listings) == 0 {
			// Rule (a): no further listings possible.
			d.logger.Info("empty results page, stopping",
				zap.Int("page", pageIndex),
				zap.Int("accumulated", len(res.Listings)))
			res.Stop = StopEmptyPage
			return res, nil
		}

		crossedCutoff := d.accumulate(pageIndex, listings, seenKeys, &res)

		d.diag.Emit(diag.Event{
			Kind:     diag.KindPageDone,
			Page:     pageIndex,
			Listings: int64(len(res.Listings)),
			Dur:      page.Duration,
		})
		d.logger.Info("page processed",
			zap.Int("page", pageIndex),
			zap.Int("cards", len(listings)),
			zap.Int("accumulated", len(res.Listings)))

		if crossedCutoff {
			// Rule (b): the rest of the result set predates the cutoff. The
			// current page was finished first, so every card already accepted
			// from it stays in the accumulator.
			res.Stop = StopDateCutoff
			return res, nil
		}
		if pageIndex+1 >= d.cfg.MaxPages {
			// Rule (c): safety bound against unbounded crawling when the
			// date heuristic drifts.
			d.logger.Warn("page ceiling reached, stopping",
				zap.Int("max_pages", d.cfg.MaxPages))
			res.Stop = StopPageCeiling
			return res, nil
		}
	}
}

// accumulate applies keep-first dedup and reports whether any listing on the
// page resolved strictly older than the cutoff.
func (d *Driver) accumulate(pageIndex int, listings []JobListing, seenKeys map[string]struct{}, res *Result) bool {
	crossedCutoff := false
	for _, listing := range listings {
		if _, dup := seenKeys[listing.JobKey]; dup {
			res.Duplicates++
			TotalDuplicatesSkipped.Inc()
			d.diag.Emit(diag.Event{
				Kind:   diag.KindDuplicateSkipped,
				Page:   pageIndex,
				JobKey: listing.JobKey,
			})
			continue
		}
		seenKeys[listing.JobKey] = struct{}{}
		res.Listings = append(res.Listings, listing)
		TotalListingsAccepted.Inc()

		if listing.OlderThan(d.cfg.Cutoff) {
			crossedCutoff = true
		}
	}
	return crossedCutoff
}
