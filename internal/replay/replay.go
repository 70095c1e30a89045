// Package replay implements the Replay Verifier: re-running the pipeline
// from an empty state over a given events source and comparing the
// resulting state_hash to an expected value — read an expected hash from
// an external input, recompute one from a fresh pass over an append-only
// log, fail closed on any mismatch.
package replay

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/preethamgouda/truth-engine/internal/domain"
	"github.com/preethamgouda/truth-engine/internal/metrics"
	"github.com/preethamgouda/truth-engine/internal/pipeline"
	"github.com/preethamgouda/truth-engine/internal/statestore"
)

// Verifier runs the pipeline from an empty state and checks its output
// hash against an expected value.
type Verifier struct {
	log     *logrus.Entry
	metrics *metrics.Recorder
}

// New returns a Verifier that logs through log (nil uses a no-op logger)
// and records counters into rec (nil disables metrics).
func New(log *logrus.Entry, rec *metrics.Recorder) *Verifier {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &Verifier{log: log, metrics: rec}
}

// Result reports the outcome of one replay verification.
type Result struct {
	ComputedHash string
	ExpectedHash string
}

// Matched reports whether the computed hash equals the expected one.
func (r Result) Matched() bool { return r.ComputedHash == r.ExpectedHash }

// Run replays eventsPath from an empty state, writing the resulting
// state to statePath and the audit trail to auditPath, and compares the
// final state_hash to expectedHash. It returns domain.ErrReplayMismatch
// (wrapping both hashes) on any disagreement.
func (v *Verifier) Run(eventsPath, statePath, auditPath, expectedHash string) (Result, error) {
	expectedHash = strings.ToLower(strings.TrimSpace(expectedHash))

	eventsFile, err := os.Open(eventsPath)
	if err != nil {
		return Result{}, fmt.Errorf("replay: open events %s: %w", eventsPath, err)
	}
	defer eventsFile.Close()

	events, err := pipeline.ReadEvents(eventsFile)
	if err != nil {
		return Result{}, err
	}

	auditFile, err := os.Create(auditPath)
	if err != nil {
		return Result{}, fmt.Errorf("replay: create audit %s: %w", auditPath, err)
	}
	defer auditFile.Close()

	state := domain.NewEngineState()
	v.log.WithFields(logrus.Fields{"events": eventsPath, "event_count": len(events)}).Info("replay: processing from empty state")

	p := pipeline.New(v.log, v.metrics)
	if err := p.Run(events, state, io.Writer(auditFile)); err != nil {
		return Result{}, err
	}

	if err := statestore.Save(statePath, state); err != nil {
		return Result{}, err
	}

	result := Result{ComputedHash: strings.ToLower(state.StateHash), ExpectedHash: expectedHash}
	if !result.Matched() {
		return result, fmt.Errorf("%w: expected=%s computed=%s", domain.ErrReplayMismatch, result.ExpectedHash, result.ComputedHash)
	}

	v.log.WithField("state_hash", result.ComputedHash).Info("replay: verified")
	return result, nil
}

// ReadExpectedHash reads and trims the expected hash from a hash file
// (the --verify <hash-file> contract), stripped of surrounding whitespace.
func ReadExpectedHash(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("replay: read hash file %s: %w", path, err)
	}
	return strings.TrimSpace(string(raw)), nil
}
