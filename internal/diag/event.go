// Package diag defines the diagnostic event stream emitted by the scrape
// pipeline. Events are recoverable observations (skipped cards, duplicate
// skips, unresolved dates) plus run lifecycle milestones; they are recorded,
// never surfaced as errors.
package diag

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind denotes the type of milestone represented by an Event.
type Kind string

// Supported diagnostic kinds.
const (
	KindRunStart         Kind = "RUN_START"
	KindRunDone          Kind = "RUN_DONE"
	KindRunError         Kind = "RUN_ERROR"
	KindPageDone         Kind = "PAGE_DONE"
	KindCardSkipped      Kind = "CARD_SKIPPED"
	KindDateUnresolved   Kind = "DATE_UNRESOLVED"
	KindDuplicateSkipped Kind = "DUPLICATE_SKIPPED"
)

// Event captures a single diagnostic observation.
type Event struct {
	// RunID uniquely identifies a pipeline run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Kind denotes which lifecycle milestone or recoverable problem occurred.
	Kind Kind
	// Page is the zero-based page index the event belongs to, where relevant.
	Page int
	// Pages carries the total pages fetched, set on run completion events.
	Pages int
	// JobKey optionally scopes card-level events to a listing.
	JobKey string
	// Listings carries the accepted-listing count for page and run milestones.
	Listings int64
	// Dur captures execution latency for page fetches and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Kind {
	case KindRunStart, KindRunDone, KindRunError, KindPageDone:
	case KindCardSkipped, KindDateUnresolved, KindDuplicateSkipped:
		if e.Page < 0 {
			return errors.New("card events require a page index")
		}
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for repositories.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
