// Package bigquery loads run artifacts into a BigQuery table.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// Config identifies the destination table.
type Config struct {
	ProjectID string
	DatasetID string
	TableID   string
}

// Loader appends uploaded CSV artifacts to the configured table via GCS load
// jobs. The table schema mirrors the artifact columns.
type Loader struct {
	client *bigquery.Client
	cfg    Config
	logger *zap.Logger
}

// tableSchema matches the artifact header row, column for column.
var tableSchema = bigquery.Schema{
	{Name: "job_key", Type: bigquery.StringFieldType, Required: true},
	{Name: "link", Type: bigquery.StringFieldType},
	{Name: "title", Type: bigquery.StringFieldType},
	{Name: "company", Type: bigquery.StringFieldType},
	{Name: "posted_date", Type: bigquery.DateFieldType},
	{Name: "posted_raw", Type: bigquery.StringFieldType},
	{Name: "location", Type: bigquery.StringFieldType},
	{Name: "salary", Type: bigquery.StringFieldType},
	{Name: "job_type", Type: bigquery.StringFieldType},
	{Name: "work_format", Type: bigquery.StringFieldType},
	{Name: "processed_location", Type: bigquery.StringFieldType},
	{Name: "snippet", Type: bigquery.StringFieldType},
}

// New constructs a Loader and ensures the destination dataset exists.
func New(ctx context.Context, client *bigquery.Client, cfg Config, logger *zap.Logger) (*Loader, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client is required")
	}
	if cfg.DatasetID == "" || cfg.TableID == "" {
		return nil, fmt.Errorf("dataset and table are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{client: client, cfg: cfg, logger: logger}
	if err := l.ensureDataset(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Table identifies the destination for error reporting.
func (l *Loader) Table() string {
	return fmt.Sprintf("%s.%s.%s", l.cfg.ProjectID, l.cfg.DatasetID, l.cfg.TableID)
}

func (l *Loader) ensureDataset(ctx context.Context) error {
	ds := l.client.Dataset(l.cfg.DatasetID)
	_, err := ds.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("dataset metadata: %w", err)
	}
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{Name: l.cfg.DatasetID}); err != nil {
		return fmt.Errorf("create dataset %s: %w", l.cfg.DatasetID, err)
	}
	l.logger.Info("created dataset", zap.String("dataset", l.cfg.DatasetID))
	return nil
}

// Load runs a CSV load job from the artifact URI with WriteAppend semantics.
// Append-only is deliberate: duplicate listings across runs are resolved at
// query time, never by rewriting the table.
func (l *Loader) Load(ctx context.Context, sourceURI string) error {
	gcsRef := bigquery.NewGCSReference(sourceURI)
	gcsRef.SourceFormat = bigquery.CSV
	gcsRef.SkipLeadingRows = 1
	gcsRef.Schema = tableSchema

	loader := l.client.Dataset(l.cfg.DatasetID).Table(l.cfg.TableID).LoaderFrom(gcsRef)
	loader.WriteDisposition = bigquery.WriteAppend
	loader.CreateDisposition = bigquery.CreateIfNeeded

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("start load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for load job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("load job failed: %w", err)
	}
	l.logger.Info("load job done",
		zap.String("job_id", job.ID()),
		zap.String("source", sourceURI))
	return nil
}
