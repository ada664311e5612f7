// Package pipeline composes one scrape run end to end: paginate, filter,
// persist, load, notify.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/analyze"
	"github.com/jobsignal/jobscraper/internal/diag"
	"github.com/jobsignal/jobscraper/internal/monitor"
	"github.com/jobsignal/jobscraper/internal/publisher"
	"github.com/jobsignal/jobscraper/internal/scraper"
	"github.com/jobsignal/jobscraper/internal/sink"
)

// Runner is the pagination stage; the scraper Driver implements it.
type Runner interface {
	Run(ctx context.Context) (scraper.Result, error)
}

// Storer is the persistence stage; the sink PipelineSink implements it.
type Storer interface {
	Store(ctx context.Context, listings []scraper.JobListing, runID uuid.UUID, scrapedAt time.Time) (sink.Receipt, error)
}

// Outcome reports how a run ended. Receipt is populated whenever the
// artifact upload succeeded, even if the warehouse load then failed.
type Outcome struct {
	RunID    uuid.UUID
	Result   scraper.Result
	Filtered int
	Receipt  sink.Receipt
}

// Notification is the payload published when a run stores its artifact.
type Notification struct {
	RunID     string `json:"run_id"`
	Artifact  string `json:"artifact_uri"`
	Listings  int    `json:"listings"`
	Pages     int    `json:"pages"`
	Loaded    bool   `json:"loaded"`
	ScrapedAt string `json:"scraped_at"`
}

// Pipeline holds the wired stages for a single run.
type Pipeline struct {
	runID   uuid.UUID
	runner  Runner
	filter  *analyze.Filter
	storer  Storer
	pub     publisher.Publisher
	emitter *diag.Emitter
	tracker *monitor.Tracker
	logger  *zap.Logger
	clock   scraper.Clock
}

// Config wires a Pipeline. Filter, pub, emitter and tracker are optional.
type Config struct {
	RunID   uuid.UUID
	Runner  Runner
	Filter  *analyze.Filter
	Storer  Storer
	Pub     publisher.Publisher
	Emitter *diag.Emitter
	Tracker *monitor.Tracker
	Logger  *zap.Logger
	Clock   scraper.Clock
}

// New assembles a Pipeline from its stages.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		runID:   cfg.RunID,
		runner:  cfg.Runner,
		filter:  cfg.Filter,
		storer:  cfg.Storer,
		pub:     cfg.Pub,
		emitter: cfg.Emitter,
		tracker: cfg.Tracker,
		logger:  logger,
		clock:   cfg.Clock,
	}
}

// Run executes the stages in order. The error classes behave differently:
// a fetch or storage failure aborts before anything durable exists, while a
// warehouse failure leaves a valid artifact behind and the Outcome carries
// its receipt for replay.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	startedAt := p.clock.Now()
	outcome := Outcome{RunID: p.runID}

	p.emitter.Emit(diag.Event{Kind: diag.KindRunStart, TS: startedAt})
	p.setPhase("scraping")

	result, err := p.runner.Run(ctx)
	if err != nil {
		p.finishError(startedAt, result, err)
		return outcome, err
	}
	outcome.Result = result
	p.tracker.Update(func(s *monitor.RunSnapshot) {
		s.Pages = result.PagesFetched
		s.Listings = len(result.Listings)
		s.Duplicates = result.Duplicates
	})
	p.logger.Info("scrape finished",
		zap.Int("pages", result.PagesFetched),
		zap.Int("listings", len(result.Listings)),
		zap.Int("duplicates", result.Duplicates),
		zap.String("stop", string(result.Stop)))

	listings := result.Listings
	if p.filter != nil {
		var dropped int
		listings, dropped = p.filter.Apply(listings)
		outcome.Filtered = dropped
		if dropped > 0 {
			p.logger.Info("title filter applied",
				zap.Int("kept", len(listings)),
				zap.Int("dropped", dropped))
		}
	}
	analyze.Summarize(listings).Log(p.logger)

	p.setPhase("storing")
	receipt, err := p.storer.Store(ctx, listings, p.runID, startedAt)
	outcome.Receipt = receipt
	if err != nil {
		var loadErr *sink.WarehouseLoadError
		if errors.As(err, &loadErr) {
			// The artifact is durable; report the failure but keep the URI.
			p.logger.Error("warehouse load failed, artifact retained",
				zap.String("uri", receipt.URI), zap.Error(err))
		}
		p.finishError(startedAt, result, err)
		return outcome, err
	}

	p.setPhase("notifying")
	p.notify(ctx, outcome, startedAt)

	finishedAt := p.clock.Now()
	p.emitter.Emit(diag.Event{
		Kind:     diag.KindRunDone,
		TS:       finishedAt,
		Pages:    result.PagesFetched,
		Listings: int64(len(listings)),
		Dur:      finishedAt.Sub(startedAt),
	})
	p.setPhase("done")
	return outcome, nil
}

func (p *Pipeline) notify(ctx context.Context, outcome Outcome, startedAt time.Time) {
	if p.pub == nil {
		return
	}
	payload := Notification{
		RunID:     p.runID.String(),
		Artifact:  outcome.Receipt.URI,
		Listings:  outcome.Receipt.Rows,
		Pages:     outcome.Result.PagesFetched,
		Loaded:    outcome.Receipt.Loaded,
		ScrapedAt: startedAt.UTC().Format(time.RFC3339),
	}
	id, err := p.pub.Publish(ctx, payload)
	if err != nil {
		// Notification is best-effort; the run already succeeded.
		p.logger.Warn("run notification failed", zap.Error(err))
		return
	}
	p.logger.Info("run notification published", zap.String("message_id", id))
}

func (p *Pipeline) finishError(startedAt time.Time, result scraper.Result, err error) {
	finishedAt := p.clock.Now()
	p.emitter.Emit(diag.Event{
		Kind:     diag.KindRunError,
		TS:       finishedAt,
		Pages:    result.PagesFetched,
		Listings: int64(len(result.Listings)),
		Dur:      finishedAt.Sub(startedAt),
		Note:     err.Error(),
	})
	p.setPhase("failed")
}

func (p *Pipeline) setPhase(phase string) {
	p.tracker.Update(func(s *monitor.RunSnapshot) {
		s.Phase = phase
	})
}
