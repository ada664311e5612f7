package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/diag"
)

// RunRecorder persists run lifecycle rows and card-level warnings. The
// Postgres run ledger implements it; tests use an in-memory fake.
type RunRecorder interface {
	StartRun(ctx context.Context, runID uuid.UUID, startedAt time.Time) error
	CompleteRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, status string, pages, listings int64, errMsg *string) error
	RecordWarning(ctx context.Context, runID uuid.UUID, ts time.Time, kind string, page int, jobKey, note string) error
}

// Run terminal statuses written by the store sink.
const (
	RunSuccess = "success"
	RunError   = "error"
)

// StoreSink persists the diagnostic stream via a RunRecorder.
type StoreSink struct {
	repo   RunRecorder
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo RunRecorder, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume forwards each event to the repository. It respects ctx deadlines
// and returns any repository errors verbatim so the hub can log them.
func (s *StoreSink) Consume(ctx context.Context, batch []diag.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	for _, evt := range batch {
		runID := evt.RunUUID()
		switch evt.Kind {
		case diag.KindRunStart:
			if err := s.repo.StartRun(ctx, runID, evt.TS); err != nil {
				return fmt.Errorf("start run: %w", err)
			}
		case diag.KindRunDone:
			if err := s.repo.CompleteRun(ctx, runID, evt.TS, RunSuccess, int64(evt.Pages), evt.Listings, nil); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}
		case diag.KindRunError:
			var note *string
			if evt.Note != "" {
				note = &evt.Note
			}
			if err := s.repo.CompleteRun(ctx, runID, evt.TS, RunError, int64(evt.Pages), evt.Listings, note); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}
		case diag.KindCardSkipped, diag.KindDateUnresolved, diag.KindDuplicateSkipped:
			if err := s.repo.RecordWarning(ctx, runID, evt.TS, string(evt.Kind), evt.Page, evt.JobKey, evt.Note); err != nil {
				return fmt.Errorf("record warning: %w", err)
			}
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
