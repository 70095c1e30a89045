// Package pipeline implements the Event Pipeline: it drives a finite,
// fully materialized slice of events through the Rule Evaluator in
// (timestamp, event_id) order, updating the State Store and emitting one
// canonical audit line per committed event. Events are not consumed
// lazily: ReadEvents reads the whole input before Run orders it.
package pipeline

import (
	"bufio"
	"fmt"
	"io"

	"github.com/google/btree"
	"github.com/sirupsen/logrus"

	"github.com/preethamgouda/truth-engine/internal/codec"
	"github.com/preethamgouda/truth-engine/internal/domain"
	"github.com/preethamgouda/truth-engine/internal/itemcache"
	"github.com/preethamgouda/truth-engine/internal/metrics"
	"github.com/preethamgouda/truth-engine/internal/ruleengine"
)

// btreeDegree is an arbitrary, unexceptional B-tree node fanout; nothing
// in the ordering contract depends on its value.
const btreeDegree = 32

// orderedEvent is the btree.BTreeG item: events compare by
// (timestamp, event_id) ascending, which is the pipeline's total
// processing order.
type orderedEvent struct {
	domain.Event
}

func orderedLess(a, b orderedEvent) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.EventID < b.EventID
}

// Pipeline drives events through the Rule Evaluator and the State Store.
type Pipeline struct {
	log     *logrus.Entry
	metrics *metrics.Recorder
}

// New returns a Pipeline that logs through log (nil uses a no-op logger)
// and records counters into rec (nil disables metrics).
func New(log *logrus.Entry, rec *metrics.Recorder) *Pipeline {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &Pipeline{log: log, metrics: rec}
}

// Run drains events (typically the full slice returned by ReadEvents)
// through state in (timestamp, event_id) order, writing one canonical
// audit line per committed event to audit. state is mutated in place and
// holds the final EngineState on return; the returned error is the first
// failure, if any.
func (p *Pipeline) Run(events []domain.Event, state *domain.EngineState, audit io.Writer) error {
	ordered := btree.NewG(btreeDegree, orderedLess)
	for _, e := range events {
		ordered.ReplaceOrInsert(orderedEvent{e})
	}

	cache := itemcache.New()
	writer := bufio.NewWriter(audit)
	defer writer.Flush()

	var lastTS int64
	haveLast := false

	var processErr error
	ordered.Ascend(func(item orderedEvent) bool {
		e := item.Event

		if haveLast && e.Timestamp < lastTS {
			processErr = fmt.Errorf("%w: event %s timestamp %d precedes %d", domain.ErrOutOfOrder, e.EventID, e.Timestamp, lastTS)
			return false
		}
		lastTS = e.Timestamp
		haveLast = true

		if _, seen := state.SeenEventIDs[e.EventID]; seen {
			p.log.WithField("event_id", e.EventID).Warn("duplicate event skipped")
			if p.metrics != nil {
				p.metrics.RecordDuplicate()
			}
			return true
		}

		if err := e.Validate(); err != nil {
			processErr = err
			return false
		}

		cache.Observe(e)
		snapshot := cache.Lookup(e.ItemID)
		prior := state.Items[e.ItemID]
		if prior.ItemID == "" {
			prior.ItemID = e.ItemID
		}

		result := ruleengine.Evaluate(e, prior, snapshot)

		state.Items[e.ItemID] = result.NewState
		state.SeenEventIDs[e.EventID] = struct{}{}

		hash, err := codec.FingerprintState(state)
		if err != nil {
			processErr = fmt.Errorf("pipeline: fingerprint after event %s: %w", e.EventID, err)
			return false
		}
		state.StateHash = hash

		record := domain.AuditRecord{
			EventID:         e.EventID,
			ItemID:          e.ItemID,
			Timestamp:       e.Timestamp,
			Source:          e.Source,
			Outcome:         e.Outcome,
			FinalPriceCents: result.FinalPriceCents,
			Decision:        result.Decision,
			Flags:           result.Flags,
			BiasCentsAfter:  result.NewState.BiasCents,
			StateHashAfter:  hash,
		}
		line, err := codec.MarshalAuditRecord(record)
		if err != nil {
			processErr = fmt.Errorf("pipeline: marshal audit record for event %s: %w", e.EventID, err)
			return false
		}
		if _, err := writer.Write(line); err != nil {
			processErr = fmt.Errorf("pipeline: write audit line for event %s: %w", e.EventID, err)
			return false
		}
		if err := writer.WriteByte('\n'); err != nil {
			processErr = fmt.Errorf("pipeline: write audit newline for event %s: %w", e.EventID, err)
			return false
		}

		if p.metrics != nil {
			p.metrics.RecordProcessed()
			p.metrics.RecordDecision(string(result.Decision))
			if result.Decision == domain.DecisionAnomalyRejected {
				p.metrics.RecordAnomaly()
			}
		}

		return true
	})

	if processErr != nil {
		return processErr
	}
	return writer.Flush()
}
