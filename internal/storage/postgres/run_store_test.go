package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestStartRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRunStoreWithPool(mock)
	require.NoError(t, err)

	runID := uuid.MustParse("0195f2c0-0000-7000-8000-000000000001")
	startedAt := time.Unix(1742000000, 0).UTC()

	mock.ExpectExec("INSERT INTO scrape_runs").
		WithArgs(runID, startedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.StartRun(context.Background(), runID, startedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteRunUpdatesTerminalState(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRunStoreWithPool(mock)
	require.NoError(t, err)

	runID := uuid.MustParse("0195f2c0-0000-7000-8000-000000000002")
	finishedAt := time.Unix(1742003600, 0).UTC()
	errMsg := "interstitial page"

	mock.ExpectExec("UPDATE scrape_runs").
		WithArgs(finishedAt, "error", int64(4), int64(37), &errMsg, runID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.CompleteRun(context.Background(), runID, finishedAt, "error", 4, 37, &errMsg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWarningInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRunStoreWithPool(mock)
	require.NoError(t, err)

	runID := uuid.MustParse("0195f2c0-0000-7000-8000-000000000003")
	ts := time.Unix(1742000100, 0).UTC()

	mock.ExpectExec("INSERT INTO run_warnings").
		WithArgs(runID, ts, "DUPLICATE_SKIPPED", 2, "abc123", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordWarning(context.Background(), runID, ts, "DUPLICATE_SKIPPED", 2, "abc123", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRunStoreWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewRunStoreWithPool(nil)
	require.Error(t, err)
}
