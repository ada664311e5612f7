// Package warehouse defines the table loader abstraction for run artifacts.
package warehouse

import "context"

// Loader appends one uploaded artifact to the destination table. The URI is
// whatever the blob store returned for the artifact.
type Loader interface {
	Load(ctx context.Context, sourceURI string) error
	// Table identifies the destination for error reporting.
	Table() string
}
