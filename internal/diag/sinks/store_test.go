package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jobsignal/jobscraper/internal/diag"
)

type recorderCall struct {
	op     string
	status string
	kind   string
	jobKey string
	pages  int64
}

type fakeRecorder struct {
	calls []recorderCall
}

func (r *fakeRecorder) StartRun(_ context.Context, _ uuid.UUID, _ time.Time) error {
	r.calls = append(r.calls, recorderCall{op: "start"})
	return nil
}

func (r *fakeRecorder) CompleteRun(_ context.Context, _ uuid.UUID, _ time.Time, status string, pages, _ int64, _ *string) error {
	r.calls = append(r.calls, recorderCall{op: "complete", status: status, pages: pages})
	return nil
}

func (r *fakeRecorder) RecordWarning(_ context.Context, _ uuid.UUID, _ time.Time, kind string, _ int, jobKey, _ string) error {
	r.calls = append(r.calls, recorderCall{op: "warning", kind: kind, jobKey: jobKey})
	return nil
}

func TestStoreSinkMapsEventsToRecorder(t *testing.T) {
	t.Parallel()

	repo := &fakeRecorder{}
	sink := NewStoreSink(repo, nil)

	runID := diag.UUIDToBytes(uuid.MustParse("0195f2c0-0000-7000-8000-000000000001"))
	ts := time.Unix(1742000000, 0).UTC()
	batch := []diag.Event{
		{RunID: runID, TS: ts, Kind: diag.KindRunStart},
		{RunID: runID, TS: ts, Kind: diag.KindDuplicateSkipped, Page: 1, JobKey: "abc123"},
		{RunID: runID, TS: ts, Kind: diag.KindPageDone, Page: 1},
		{RunID: runID, TS: ts, Kind: diag.KindRunDone, Pages: 4, Listings: 37},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))
	require.Len(t, repo.calls, 3, "page events have no ledger row")

	require.Equal(t, "start", repo.calls[0].op)
	require.Equal(t, "warning", repo.calls[1].op)
	require.Equal(t, string(diag.KindDuplicateSkipped), repo.calls[1].kind)
	require.Equal(t, "abc123", repo.calls[1].jobKey)
	require.Equal(t, "complete", repo.calls[2].op)
	require.Equal(t, RunSuccess, repo.calls[2].status)
	require.Equal(t, int64(4), repo.calls[2].pages)
}

func TestStoreSinkRunError(t *testing.T) {
	t.Parallel()

	repo := &fakeRecorder{}
	sink := NewStoreSink(repo, nil)

	runID := diag.UUIDToBytes(uuid.New())
	evt := diag.Event{RunID: runID, TS: time.Now().UTC(), Kind: diag.KindRunError, Note: "interstitial"}

	require.NoError(t, sink.Consume(context.Background(), []diag.Event{evt}))
	require.Len(t, repo.calls, 1)
	require.Equal(t, RunError, repo.calls[0].status)
}
