// Package sink persists a finished scrape: CSV artifact to blob storage
// first, then an append-only load into the warehouse table.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/scraper"
	"github.com/jobsignal/jobscraper/internal/storage"
	"github.com/jobsignal/jobscraper/internal/warehouse"
)

const csvContentType = "text/csv"

// Receipt describes a completed (or partially completed) store operation.
type Receipt struct {
	// Object is the blob path within the bucket.
	Object string
	// URI is the provider URI of the uploaded artifact.
	URI string
	// Rows is the number of listings written, header excluded.
	Rows int
	// Loaded reports whether the warehouse load completed.
	Loaded bool
}

// PipelineSink writes the run artifact and triggers the warehouse load.
// Ordering is fixed: the artifact must be durable before any load attempt so
// a load failure is always recoverable by replaying the URI.
type PipelineSink struct {
	blobs  storage.BlobStore
	loader warehouse.Loader
	prefix string
	logger *zap.Logger
}

// NewPipelineSink wires the blob store and loader. A nil loader skips the
// warehouse stage, which supports artifact-only runs.
func NewPipelineSink(blobs storage.BlobStore, loader warehouse.Loader, prefix string, logger *zap.Logger) *PipelineSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineSink{
		blobs:  blobs,
		loader: loader,
		prefix: prefix,
		logger: logger,
	}
}

// Store serializes the listings, uploads the artifact, and loads it into the
// warehouse. On a WarehouseLoadError the returned receipt still carries the
// valid artifact URI.
func (s *PipelineSink) Store(ctx context.Context, listings []scraper.JobListing, runID uuid.UUID, scrapedAt time.Time) (Receipt, error) {
	object := s.objectPath(runID, scrapedAt)

	data, err := EncodeCSV(listings)
	if err != nil {
		return Receipt{}, &StorageWriteError{Object: object, Err: err}
	}

	uri, err := s.blobs.PutObject(ctx, object, csvContentType, bytes.NewReader(data))
	if err != nil {
		return Receipt{}, &StorageWriteError{Object: object, Err: err}
	}
	receipt := Receipt{Object: object, URI: uri, Rows: len(listings)}
	s.logger.Info("artifact uploaded",
		zap.String("uri", uri),
		zap.Int("rows", receipt.Rows),
		zap.Int("bytes", len(data)))

	if s.loader == nil {
		return receipt, nil
	}
	if err := s.loader.Load(ctx, uri); err != nil {
		return receipt, &WarehouseLoadError{Table: s.loader.Table(), Err: err}
	}
	receipt.Loaded = true
	s.logger.Info("warehouse load complete",
		zap.String("table", s.loader.Table()),
		zap.Int("rows", receipt.Rows))
	return receipt, nil
}

// objectPath names the artifact by scrape date and run so repeated daily runs
// never collide.
func (s *PipelineSink) objectPath(runID uuid.UUID, scrapedAt time.Time) string {
	name := fmt.Sprintf("indeed_it_jobs_%s_%s.csv", scrapedAt.UTC().Format("20060102"), runID.String())
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}
