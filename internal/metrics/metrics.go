// Package metrics provides purely observational counters for a pipeline
// run: events processed, duplicates skipped, decisions by tag, and
// circuit-breaker anomalies. Counters live in a private
// prometheus.Registry (never the global default one, since this binary
// runs no HTTP server) and can be rendered to a text file at the end of a
// run. Nothing here feeds back into pricing or hashing.
package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder holds one run's counters.
type Recorder struct {
	registry   *prometheus.Registry
	processed  prometheus.Counter
	duplicates prometheus.Counter
	anomalies  prometheus.Counter
	decisions  *prometheus.CounterVec
}

// New registers a fresh set of counters in a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "truth_engine_events_processed_total",
			Help: "Events committed to state (duplicates excluded).",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "truth_engine_events_duplicate_total",
			Help: "Events skipped because their event_id was already seen.",
		}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "truth_engine_anomalies_total",
			Help: "Human-accepted quotes rejected by the circuit breaker.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truth_engine_decisions_total",
			Help: "Final decisions emitted, by decision tag.",
		}, []string{"decision"}),
	}
	reg.MustRegister(r.processed, r.duplicates, r.anomalies, r.decisions)
	return r
}

// RecordProcessed increments the processed-events counter.
func (r *Recorder) RecordProcessed() { r.processed.Inc() }

// RecordDuplicate increments the skipped-duplicate counter.
func (r *Recorder) RecordDuplicate() { r.duplicates.Inc() }

// RecordAnomaly increments the circuit-breaker counter.
func (r *Recorder) RecordAnomaly() { r.anomalies.Inc() }

// RecordDecision increments the per-tag decision counter.
func (r *Recorder) RecordDecision(decision string) { r.decisions.WithLabelValues(decision).Inc() }

// WriteTo renders the registry's current state to path in Prometheus
// text exposition format.
func (r *Recorder) WriteTo(path string) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
