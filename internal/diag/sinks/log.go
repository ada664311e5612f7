// Package sinks provides Sink implementations for the diagnostic hub.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/diag"
)

// LogSink emits structured logs for the diagnostic stream. This is the log
// stream the pipeline contract requires for skipped cards, duplicate skips,
// and unresolved dates.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []diag.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("kind", string(evt.Kind)),
			zap.Int("page", evt.Page),
			zap.Int("pages", evt.Pages),
			zap.String("job_key", evt.JobKey),
			zap.Int64("listings", evt.Listings),
			zap.Duration("dur", evt.Dur),
			zap.String("note", evt.Note),
		}
		s.logger.Info("diagnostic event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
