package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preethamgouda/truth-engine/internal/codec"
	"github.com/preethamgouda/truth-engine/internal/domain"
	"github.com/preethamgouda/truth-engine/internal/pipeline"
)

func writeEventsFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "events.jsonl")
	content := `{"event_id":"e1","item_id":"P1","timestamp":0,"source":"HISTORIC","price_cents":10000,"outcome":"NONE"}
{"event_id":"e2","item_id":"P1","timestamp":1000,"source":"SUPPLIER","price_cents":10200,"outcome":"NONE"}
{"event_id":"e3","item_id":"P1","timestamp":2000,"source":"HUMAN","price_cents":10500,"outcome":"QUOTE_ACCEPTED"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func expectedHashForEventsFile(t *testing.T, eventsPath string) string {
	t.Helper()
	f, err := os.Open(eventsPath)
	require.NoError(t, err)
	defer f.Close()

	events, err := pipeline.ReadEvents(f)
	require.NoError(t, err)

	state := domain.NewEngineState()
	var discard discardWriter
	p := pipeline.New(nil, nil)
	require.NoError(t, p.Run(events, state, discard))

	hash, err := codec.FingerprintState(state)
	require.NoError(t, err)
	return hash
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestVerifyMatchingHashSucceeds(t *testing.T) {
	dir := t.TempDir()
	eventsPath := writeEventsFile(t, dir)
	expected := expectedHashForEventsFile(t, eventsPath)

	hashFile := filepath.Join(dir, "expected.hash")
	require.NoError(t, os.WriteFile(hashFile, []byte("  "+expected+"\n"), 0o644))

	v := New(nil, nil)
	result, err := v.Run(eventsPath, filepath.Join(dir, "state.json"), filepath.Join(dir, "audit.jsonl"), expected)
	require.NoError(t, err)
	assert.True(t, result.Matched())
	assert.Equal(t, expected, result.ComputedHash)

	_, err = os.Stat(filepath.Join(dir, "state.json"))
	assert.NoError(t, err)
}

func TestVerifyMismatchedHashFails(t *testing.T) {
	dir := t.TempDir()
	eventsPath := writeEventsFile(t, dir)

	v := New(nil, nil)
	_, err := v.Run(eventsPath, filepath.Join(dir, "state.json"), filepath.Join(dir, "audit.jsonl"), "0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, domain.ErrReplayMismatch)
}

func TestReadExpectedHashTrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expected.hash")
	require.NoError(t, os.WriteFile(path, []byte("  abc123  \n"), 0o644))

	got, err := ReadExpectedHash(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}

func TestVerifyAlwaysStartsFromEmptyState(t *testing.T) {
	dir := t.TempDir()
	eventsPath := writeEventsFile(t, dir)
	expected := expectedHashForEventsFile(t, eventsPath)

	// A pre-existing state file at statePath must be ignored and
	// overwritten; replay always starts from an empty state.
	statePath := filepath.Join(dir, "state.json")
	preexisting := domain.NewEngineState()
	preexisting.Items["stale"] = domain.PerItemState{ItemID: "stale", LastUpdatedTS: 1}
	hash, err := codec.FingerprintState(preexisting)
	require.NoError(t, err)
	preexisting.StateHash = hash
	body, err := codec.MarshalState(preexisting)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(statePath, body, 0o644))

	v := New(nil, nil)
	result, err := v.Run(eventsPath, statePath, filepath.Join(dir, "audit.jsonl"), expected)
	require.NoError(t, err)
	assert.True(t, result.Matched())
}
