package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobsignal/jobscraper/internal/diag"
)

// PrometheusSink exports the diagnostic stream as Prometheus metrics. It owns
// collectors for run lifecycle and per-page/card counters so the monitor
// server can expose live scrape health.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runRuntime    *prometheus.HistogramVec
	pagesDone     prometheus.Counter
	cardEvents    *prometheus.CounterVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobscraper_runs_started_total",
			Help: "Total pipeline runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscraper_runs_completed_total",
			Help: "Total pipeline runs completed partitioned by result.",
		}, []string{"result"}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobscraper_run_runtime_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"result"}),
		pagesDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobscraper_pages_done_total",
			Help: "Search-results pages fully processed.",
		}),
		cardEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscraper_card_events_total",
			Help: "Recoverable card-level diagnostics partitioned by kind.",
		}, []string{"kind"}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runRuntime,
		s.pagesDone,
		s.cardEvents,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register diag collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []diag.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt diag.Event) {
	switch evt.Kind {
	case diag.KindRunStart:
		s.runsStarted.Inc()
	case diag.KindRunDone:
		s.runsCompleted.WithLabelValues("success").Inc()
		s.observeRuntime(evt, "success")
	case diag.KindRunError:
		s.runsCompleted.WithLabelValues("error").Inc()
		s.observeRuntime(evt, "error")
	case diag.KindPageDone:
		s.pagesDone.Inc()
	case diag.KindCardSkipped, diag.KindDateUnresolved, diag.KindDuplicateSkipped:
		s.cardEvents.WithLabelValues(string(evt.Kind)).Inc()
	}
}

func (s *PrometheusSink) observeRuntime(evt diag.Event, label string) {
	if evt.Dur > 0 {
		s.runRuntime.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
