package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	pubsubapi "cloud.google.com/go/pubsub"
	gcsapi "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/analyze"
	"github.com/jobsignal/jobscraper/internal/clock/system"
	"github.com/jobsignal/jobscraper/internal/config"
	"github.com/jobsignal/jobscraper/internal/diag"
	"github.com/jobsignal/jobscraper/internal/diag/sinks"
	iduuid "github.com/jobsignal/jobscraper/internal/id/uuid"
	"github.com/jobsignal/jobscraper/internal/logging"
	"github.com/jobsignal/jobscraper/internal/monitor"
	"github.com/jobsignal/jobscraper/internal/pipeline"
	"github.com/jobsignal/jobscraper/internal/publisher"
	pubsubpub "github.com/jobsignal/jobscraper/internal/publisher/pubsub"
	"github.com/jobsignal/jobscraper/internal/scraper"
	"github.com/jobsignal/jobscraper/internal/sink"
	"github.com/jobsignal/jobscraper/internal/storage"
	"github.com/jobsignal/jobscraper/internal/storage/gcs"
	storagemem "github.com/jobsignal/jobscraper/internal/storage/memory"
	"github.com/jobsignal/jobscraper/internal/storage/postgres"
	"github.com/jobsignal/jobscraper/internal/warehouse"
	bq "github.com/jobsignal/jobscraper/internal/warehouse/bigquery"
	warehousemem "github.com/jobsignal/jobscraper/internal/warehouse/memory"
)

const closeTimeout = 15 * time.Second

// newScrapeCmd creates the 'scrape' subcommand, which runs one batch
// collection end to end.
func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Runs one batch scrape of the configured job search",
		Long: `Paginates the configured search, extracts and deduplicates listing
cards, writes the CSV artifact to object storage and appends it to the
warehouse table. The process exits non-zero on any fetch, storage or
warehouse failure.`,
		RunE: runScrapeCommand,
	}
}

type closableFetcher interface {
	scraper.Fetcher
	Close(context.Context) error
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	runID, err := iduuid.Generator{}.NewRunID()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID.String()))
	clock := system.New()

	hub, runStore, err := buildDiagHub(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("diag hub close", zap.Error(cerr))
		}
		if runStore != nil {
			runStore.Close()
		}
	}()
	emitter := hub.BindRun(runID, clock.Now)

	tracker := monitor.NewTracker(runID.String(), clock.Now())
	if cfg.Monitor.Enabled {
		srv := monitor.NewServer(cfg.Monitor.Port, tracker, prometheus.DefaultGatherer, logger)
		srv.Start()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			if serr := srv.Shutdown(closeCtx); serr != nil {
				logger.Warn("monitor shutdown", zap.Error(serr))
			}
		}()
	}

	fetcher, err := buildFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if ferr := fetcher.Close(closeCtx); ferr != nil {
			logger.Warn("fetcher close", zap.Error(ferr))
		}
	}()

	extractor := scraper.NewExtractor(cfg.Scrape.BaseURL, logger, emitter)
	driver := scraper.NewDriver(scraper.DriverConfig{
		Query: scraper.SearchQuery{
			Title:    cfg.Scrape.Query,
			Location: cfg.Scrape.Location,
		},
		BaseURL:  cfg.Scrape.BaseURL,
		Cutoff:   cfg.Cutoff(),
		MaxPages: cfg.Scrape.MaxPages,
	}, fetcher, extractor, clock, logger, emitter)

	storer, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pub, pubCleanup, err := buildPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer pubCleanup()

	var filter *analyze.Filter
	if cfg.Filter.ITOnly {
		filter = analyze.NewFilter(cfg.Filter.Keywords)
	}

	p := pipeline.New(pipeline.Config{
		RunID:   runID,
		Runner:  driver,
		Filter:  filter,
		Storer:  storer,
		Pub:     pub,
		Emitter: emitter,
		Tracker: tracker,
		Logger:  logger,
		Clock:   clock,
	})

	outcome, err := p.Run(ctx)
	return reportOutcome(logger, outcome, err)
}

// reportOutcome logs how the run ended and maps it to the process exit
// status. An interrupted run logs gently but still exits non-zero: no
// stopping rule fired and no artifact was written.
func reportOutcome(logger *zap.Logger, outcome pipeline.Outcome, err error) error {
	switch {
	case err == nil:
		logger.Info("scrape complete",
			zap.String("artifact", outcome.Receipt.URI),
			zap.Int("rows", outcome.Receipt.Rows),
			zap.Bool("loaded", outcome.Receipt.Loaded))
		return nil
	case errors.Is(err, context.Canceled):
		logger.Warn("scrape canceled")
		return err
	default:
		return fmt.Errorf("run pipeline: %w", err)
	}
}

func buildDiagHub(ctx context.Context, cfg config.Config, logger *zap.Logger) (*diag.Hub, *postgres.RunStore, error) {
	hubSinks := []diag.Sink{sinks.NewLogSink(logger)}

	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	hubSinks = append(hubSinks, promSink)

	var runStore *postgres.RunStore
	if cfg.DB.Enabled {
		runStore, err = postgres.NewRunStore(ctx, postgres.RunStoreConfig{DSN: cfg.DB.DSN})
		if err != nil {
			return nil, nil, fmt.Errorf("init run ledger: %w", err)
		}
		hubSinks = append(hubSinks, sinks.NewStoreSink(runStore, logger))
	}

	hub := diag.NewHub(diag.Config{Logger: logger}, hubSinks...)
	return hub, runStore, nil
}

func buildFetcher(cfg config.Config, logger *zap.Logger) (closableFetcher, error) {
	fcfg := scraper.FetcherConfig{
		BaseURL:        cfg.Scrape.BaseURL,
		UserAgent:      cfg.Scrape.UserAgent,
		NavTimeout:     cfg.NavTimeout(),
		RequestTimeout: cfg.RequestTimeout(),
		PageDelay:      cfg.PageDelay(),
	}
	switch cfg.Scrape.FetchMode {
	case config.FetchModeHeadless:
		return scraper.NewChromedpFetcher(fcfg, logger)
	case config.FetchModeStatic:
		return scraper.NewCollyFetcher(fcfg, logger)
	case config.FetchModeAuto:
		return scraper.NewAutoFetcher(fcfg, scraper.NewResultsPageDetector(), logger)
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", cfg.Scrape.FetchMode)
	}
}

func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sink.PipelineSink, error) {
	var blobs storage.BlobStore
	switch cfg.Storage.Provider {
	case "gcs":
		client, err := gcsapi.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		blobs, err = gcs.New(ctx, client, gcs.Config{Bucket: cfg.Storage.Bucket})
		if err != nil {
			return nil, err
		}
	case "memory":
		blobs = storagemem.NewBlobStore()
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}

	var loader warehouse.Loader
	switch cfg.Warehouse.Provider {
	case "bigquery":
		client, err := bigquery.NewClient(ctx, cfg.Warehouse.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init bigquery client: %w", err)
		}
		loader, err = bq.New(ctx, client, bq.Config{
			ProjectID: cfg.Warehouse.ProjectID,
			DatasetID: cfg.Warehouse.DatasetID,
			TableID:   cfg.Warehouse.TableID,
		}, logger)
		if err != nil {
			return nil, err
		}
	case "memory":
		loader = warehousemem.NewLoader()
	case "none":
		loader = nil
	default:
		return nil, fmt.Errorf("unknown warehouse provider %q", cfg.Warehouse.Provider)
	}

	return sink.NewPipelineSink(blobs, loader, cfg.Storage.Prefix, logger), nil
}

func buildPublisher(ctx context.Context, cfg config.Config) (publisher.Publisher, func(), error) {
	if !cfg.PubSub.Enabled {
		return nil, func() {}, nil
	}
	client, err := pubsubapi.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("init pubsub client: %w", err)
	}
	pub, err := pubsubpub.New(ctx, client, cfg.PubSub.TopicID)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	cleanup := func() {
		pub.Stop()
		_ = client.Close()
	}
	return pub, cleanup, nil
}
