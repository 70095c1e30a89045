// Package domain holds the value types shared across the pricing core:
// events read from the input log, the learning state persisted per item,
// the ephemeral per-run cache, and the audit record emitted per event.
//
// No floats appear anywhere in this package. All monetary values are
// integer cents; all timestamps are integer seconds since a fixed epoch.
package domain

// Source identifies where a price observation originated.
type Source string

const (
	SourceHistoric Source = "HISTORIC"
	SourceSupplier Source = "SUPPLIER"
	SourceHuman    Source = "HUMAN"
)

// Outcome records the result of a human quote. Only HUMAN events may carry
// a non-NONE outcome.
type Outcome string

const (
	OutcomeNone          Outcome = "NONE"
	OutcomeQuoteAccepted Outcome = "QUOTE_ACCEPTED"
	OutcomeQuoteRejected Outcome = "QUOTE_REJECTED"
)

// Decision is the fixed-vocabulary label identifying which rule branch
// produced a final price.
type Decision string

const (
	DecisionHumanAccepted    Decision = "HUMAN_ACCEPTED"
	DecisionSupplierPlusBias Decision = "SUPPLIER_PLUS_BIAS"
	DecisionHistoricPlusBias Decision = "HISTORIC_PLUS_BIAS"
	DecisionAnomalyRejected  Decision = "ANOMALY_REJECTED"
	DecisionFallbackNoData   Decision = "FALLBACK_NO_DATA"
)

// Flag is an informational tag attached to a decision.
type Flag string

const (
	FlagNoData          Flag = "NO_DATA"
	FlagAnomalyRejected Flag = "ANOMALY_REJECTED"
)

// MaxDeltaWindow is the maximum length of a PerItemState's accepted-human
// delta sequence; the oldest delta is evicted once it is exceeded.
const MaxDeltaWindow = 5

// SupplierEligibleWindowSeconds is the maximum age, in seconds, at which a
// supplier observation remains eligible for candidate selection.
const SupplierEligibleWindowSeconds = 3600

// DecayThresholdSeconds is the minimum gap since last_updated_ts after
// which bias is halved (floor division) for the current decision only.
const DecayThresholdSeconds = 604800

// Event is one input record from events.jsonl.
type Event struct {
	EventID    string  `json:"event_id"`
	ItemID     string  `json:"item_id"`
	Timestamp  int64   `json:"timestamp"`
	Source     Source  `json:"source"`
	PriceCents int64   `json:"price_cents"`
	Outcome    Outcome `json:"outcome"`
}

// PerItemState is the persisted learning state for one item.
type PerItemState struct {
	ItemID                   string  `json:"item_id"`
	LastUpdatedTS            int64   `json:"last_updated_ts"`
	AcceptedHumanDeltasCents []int64 `json:"accepted_human_deltas_cents"`
	BiasCents                int64   `json:"bias_cents"`
}

// Clone returns a deep copy so callers may mutate the returned value
// without aliasing the version held in the EngineState being replaced.
func (s PerItemState) Clone() PerItemState {
	out := s
	if s.AcceptedHumanDeltasCents != nil {
		out.AcceptedHumanDeltasCents = append([]int64(nil), s.AcceptedHumanDeltasCents...)
	}
	return out
}

// Observation is a single (price, timestamp) pair retained by the
// Per-Item Cache for one source.
type Observation struct {
	PriceCents int64
	Timestamp  int64
	Present    bool
}

// PerItemCache is the ephemeral, run-local view of the most recent
// HISTORIC and SUPPLIER observations for one item. It is never persisted.
type PerItemCache struct {
	LatestHistoric Observation
	LatestSupplier Observation
}

// EngineState is the persisted root: the schema version, per-item
// learning state, the set of processed event IDs (for idempotent replay),
// and the canonical fingerprint of those three.
type EngineState struct {
	Version      int                     `json:"version"`
	Items        map[string]PerItemState `json:"items"`
	SeenEventIDs map[string]struct{}     `json:"-"`
	StateHash    string                  `json:"state_hash"`
}

// CurrentVersion is the schema tag written into fresh EngineState values.
const CurrentVersion = 1

// NewEngineState returns an empty state at CurrentVersion.
func NewEngineState() *EngineState {
	return &EngineState{
		Version:      CurrentVersion,
		Items:        make(map[string]PerItemState),
		SeenEventIDs: make(map[string]struct{}),
	}
}

// AuditRecord is one canonical line emitted per processed event.
type AuditRecord struct {
	EventID         string   `json:"event_id"`
	ItemID          string   `json:"item_id"`
	Timestamp       int64    `json:"timestamp"`
	Source          Source   `json:"source"`
	Outcome         Outcome  `json:"outcome"`
	FinalPriceCents int64    `json:"final_price_cents"`
	Decision        Decision `json:"decision"`
	Flags           []Flag   `json:"flags"`
	BiasCentsAfter  int64    `json:"bias_cents_after"`
	StateHashAfter  string   `json:"state_hash_after"`
}
