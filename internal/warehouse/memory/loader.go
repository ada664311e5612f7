// Package memory provides an in-memory Loader for development and tests.
package memory

import (
	"context"
	"sync"
)

// Loader records loaded artifact URIs instead of touching a real warehouse.
// A non-nil Err makes every Load fail with it.
type Loader struct {
	mu     sync.Mutex
	loaded []string

	Err error
}

// NewLoader creates an empty in-memory loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Table identifies the fake destination.
func (l *Loader) Table() string {
	return "memory.jobs"
}

// Load records the source URI.
func (l *Loader) Load(_ context.Context, sourceURI string) error {
	if l.Err != nil {
		return l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = append(l.loaded, sourceURI)
	return nil
}

// Loaded returns the URIs loaded so far.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.loaded...)
}
