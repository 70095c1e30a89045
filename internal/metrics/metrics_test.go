package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.RecordProcessed()
	r.RecordProcessed()
	r.RecordDuplicate()
	r.RecordAnomaly()
	r.RecordDecision("HUMAN_ACCEPTED")
	r.RecordDecision("HUMAN_ACCEPTED")
	r.RecordDecision("SUPPLIER_PLUS_BIAS")

	families, err := r.registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestWriteToProducesPrometheusTextFormat(t *testing.T) {
	r := New()
	r.RecordProcessed()
	r.RecordDecision("HUMAN_ACCEPTED")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, r.WriteTo(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "truth_engine_events_processed_total")
	assert.Contains(t, string(body), "truth_engine_decisions_total")
}
