// Package storage defines the blob store abstraction used to persist run
// artifacts before the warehouse load.
package storage

import (
	"context"
	"io"
)

// BlobStore writes one artifact to durable object storage and returns a
// provider URI for it (gs://bucket/path for GCS).
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}
