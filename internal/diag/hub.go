package diag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls buffering and batching for the Hub.
//   - BufferSize: size of the internal channel (default 1024).
//   - MaxBatchEvents: flush once this many events queue (default 256).
//   - MaxBatchWait: flush this long after a batch's first event (default 500ms).
//   - SinkTimeout: per-sink timeout while flushing (default 10s).
//   - BaseContext: parent context passed to sink calls (defaults to context.Background()).
//   - Logger: optional structured logger used for warnings.
type Config struct {
	BufferSize     int
	MaxBatchEvents int
	MaxBatchWait   time.Duration
	SinkTimeout    time.Duration
	BaseContext    context.Context
	Logger         *zap.Logger
}

const (
	defaultBufferSize     = 1024
	defaultMaxBatchEvents = 256
	defaultMaxBatchWait   = 500 * time.Millisecond
	defaultSinkTimeout    = 10 * time.Second
	dropLogInterval       = 5 * time.Second
)

// Hub batches the diagnostic stream and fans it out to its sinks. Emit never
// blocks: the single-threaded driver must not stall on a slow sink, so under
// backpressure events are counted and dropped instead.
type Hub struct {
	cfg     Config
	sinks   []Sink
	queue   chan Event
	quit    chan struct{}
	done    chan struct{}
	logger  *zap.Logger
	dropLog *rate.Limiter
	dropped atomic.Int64
	closed  atomic.Bool

	closeOnce sync.Once
	closeCtx  context.Context
}

// NewHub starts the batching goroutine over the supplied sinks. The returned
// Hub accepts events immediately.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.MaxBatchEvents <= 0 {
		cfg.MaxBatchEvents = defaultMaxBatchEvents
	}
	if cfg.MaxBatchWait <= 0 {
		cfg.MaxBatchWait = defaultMaxBatchWait
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &Hub{
		cfg:     cfg,
		sinks:   append([]Sink(nil), sinks...),
		queue:   make(chan Event, cfg.BufferSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  cfg.Logger,
		dropLog: rate.NewLimiter(rate.Every(dropLogInterval), 1),
	}
	go h.run()
	return h
}

// Emit enqueues an Event for batching. If the buffer is full the event is
// dropped and a rate-limited warning is logged.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid diagnostic event", zap.Error(err))
		return
	}
	select {
	case h.queue <- evt:
	default:
		h.dropped.Add(1)
		if h.dropLog.Allow() {
			h.logger.Warn("diagnostic events dropped due to backpressure",
				zap.Int64("dropped", h.dropped.Swap(0)))
		}
	}
}

// Close drains remaining events, flushes and closes the sinks, and blocks
// until the background goroutine exits. Safe to call more than once.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeCtx = ctx
		close(h.quit)
	})
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("diag hub close wait: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.done)

	batch := make([]Event, 0, h.cfg.MaxBatchEvents)
	timer := time.NewTimer(h.cfg.MaxBatchWait)
	armed := false
	defer timer.Stop()

	// The timer is armed by a batch's first event, so a batch flushes at
	// most MaxBatchWait after it started filling.
	disarm := func() {
		if armed && !timer.Stop() {
			<-timer.C
		}
		armed = false
	}

	for {
		select {
		case evt := <-h.queue:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatchEvents {
				h.flush(batch)
				batch = batch[:0]
				disarm()
			} else if !armed {
				timer.Reset(h.cfg.MaxBatchWait)
				armed = true
			}
		case <-timer.C:
			armed = false
			h.flush(batch)
			batch = batch[:0]
		case <-h.quit:
			disarm()
			h.drain(batch)
			return
		}
	}
}

// drain empties the queue without blocking, then flushes and closes sinks.
func (h *Hub) drain(batch []Event) {
	for {
		select {
		case evt := <-h.queue:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatchEvents {
				h.flush(batch)
				batch = batch[:0]
			}
		default:
			h.flush(batch)
			h.closeSinks()
			return
		}
	}
}

func (h *Hub) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}
	// Sinks may retain the slice past the call; hand them a copy.
	events := append([]Event(nil), batch...)
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(h.cfg.BaseContext, h.cfg.SinkTimeout)
		if err := sink.Consume(ctx, events); err != nil {
			h.logger.Warn("diag sink consume failed", zap.Error(err))
		}
		cancel()
	}
}

func (h *Hub) closeSinks() {
	ctx := h.closeCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("diag sink close failed", zap.Error(err))
		}
	}
}

// Emitter stamps events with one run's identity and timestamp before handing
// them to the hub, so pipeline components don't carry the run ID themselves.
// A nil Emitter discards everything, which keeps fakes out of unit tests.
type Emitter struct {
	hub   *Hub
	runID [16]byte
	now   func() time.Time
}

// BindRun scopes the hub to a single run.
func (h *Hub) BindRun(runID uuid.UUID, now func() time.Time) *Emitter {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Emitter{hub: h, runID: UUIDToBytes(runID), now: now}
}

// Emit fills in run identity and timestamp, then forwards to the hub.
func (e *Emitter) Emit(evt Event) {
	if e == nil || e.hub == nil {
		return
	}
	evt.RunID = e.runID
	if evt.TS.IsZero() {
		evt.TS = e.now()
	}
	e.hub.Emit(evt)
}
