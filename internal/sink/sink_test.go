package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	storagemem "github.com/jobsignal/jobscraper/internal/storage/memory"
	warehousemem "github.com/jobsignal/jobscraper/internal/warehouse/memory"
)

type failingBlobStore struct{ err error }

func (s *failingBlobStore) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", s.err
}

func TestPipelineSinkStoresArtifactAndLoads(t *testing.T) {
	t.Parallel()

	blobs := storagemem.NewBlobStore()
	loader := warehousemem.NewLoader()
	s := NewPipelineSink(blobs, loader, "jobs", nil)

	runID := uuid.MustParse("0195f2c0-0000-7000-8000-000000000001")
	scrapedAt := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

	receipt, err := s.Store(context.Background(), sampleListings(), runID, scrapedAt)
	require.NoError(t, err)

	wantObject := fmt.Sprintf("jobs/indeed_it_jobs_20250315_%s.csv", runID)
	require.Equal(t, wantObject, receipt.Object)
	require.Equal(t, "memory://"+wantObject, receipt.URI)
	require.Equal(t, 2, receipt.Rows)
	require.True(t, receipt.Loaded)

	data, ok := blobs.Object(wantObject)
	require.True(t, ok)
	decoded, err := DecodeCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	require.Equal(t, []string{receipt.URI}, loader.Loaded())
}

func TestPipelineSinkStorageFailurePreventsLoad(t *testing.T) {
	t.Parallel()

	boom := errors.New("bucket gone")
	loader := warehousemem.NewLoader()
	s := NewPipelineSink(&failingBlobStore{err: boom}, loader, "jobs", nil)

	_, err := s.Store(context.Background(), sampleListings(), uuid.New(), time.Now().UTC())
	require.Error(t, err)

	var storeErr *StorageWriteError
	require.ErrorAs(t, err, &storeErr)
	require.ErrorIs(t, err, boom)
	require.Empty(t, loader.Loaded(), "a load must never run without a durable artifact")
}

func TestPipelineSinkLoadFailureKeepsArtifact(t *testing.T) {
	t.Parallel()

	blobs := storagemem.NewBlobStore()
	loader := warehousemem.NewLoader()
	loader.Err = errors.New("quota exceeded")
	s := NewPipelineSink(blobs, loader, "", nil)

	receipt, err := s.Store(context.Background(), sampleListings(), uuid.New(), time.Now().UTC())
	require.Error(t, err)

	var loadErr *WarehouseLoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "memory.jobs", loadErr.Table)

	require.NotEmpty(t, receipt.URI, "receipt must carry the artifact URI for replay")
	require.False(t, receipt.Loaded)
	_, ok := blobs.Object(receipt.Object)
	require.True(t, ok, "the artifact survives a failed load")
}

func TestPipelineSinkNilLoaderSkipsWarehouse(t *testing.T) {
	t.Parallel()

	blobs := storagemem.NewBlobStore()
	s := NewPipelineSink(blobs, nil, "jobs", nil)

	receipt, err := s.Store(context.Background(), nil, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	require.False(t, receipt.Loaded)
	require.Equal(t, 1, blobs.Len())
}
