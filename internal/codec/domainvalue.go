package codec

import (
	"sort"

	"github.com/preethamgouda/truth-engine/internal/domain"
)

// EngineStateValue builds the canonical Value for an EngineState's hashed
// payload: version, items (sorted by item_id), and seen_event_ids (sorted
// ascending). state_hash itself is excluded, per the codec's contract for
// fingerprinting EngineState.
func EngineStateValue(s *domain.EngineState) Value {
	items := make(map[string]Value, len(s.Items))
	for id, item := range s.Items {
		items[id] = PerItemStateValue(item)
	}

	ids := make([]string, 0, len(s.SeenEventIDs))
	for id := range s.SeenEventIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	seen := make([]Value, len(ids))
	for i, id := range ids {
		seen[i] = Str(id)
	}

	return Obj(map[string]Value{
		"version":        Int(int64(s.Version)),
		"items":          Obj(items),
		"seen_event_ids": Arr(seen...),
	})
}

// PerItemStateValue builds the canonical Value for one item's learning
// state. item_id is the enclosing map key in the rules_state.json format
// in the on-disk mapping and is deliberately not repeated inside the object.
func PerItemStateValue(p domain.PerItemState) Value {
	deltas := make([]Value, len(p.AcceptedHumanDeltasCents))
	for i, d := range p.AcceptedHumanDeltasCents {
		deltas[i] = Int(d)
	}
	return Obj(map[string]Value{
		"last_updated_ts":             Int(p.LastUpdatedTS),
		"accepted_human_deltas_cents": Arr(deltas...),
		"bias_cents":                  Int(p.BiasCents),
	})
}

// AuditRecordValue builds the canonical Value for one audit line.
func AuditRecordValue(r domain.AuditRecord) Value {
	flags := make([]Value, len(r.Flags))
	for i, f := range r.Flags {
		flags[i] = Str(string(f))
	}
	return Obj(map[string]Value{
		"event_id":          Str(r.EventID),
		"item_id":           Str(r.ItemID),
		"timestamp":         Int(r.Timestamp),
		"source":            Str(string(r.Source)),
		"outcome":           Str(string(r.Outcome)),
		"final_price_cents": Int(r.FinalPriceCents),
		"decision":          Str(string(r.Decision)),
		"flags":             Arr(flags...),
		"bias_cents_after":  Int(r.BiasCentsAfter),
		"state_hash_after":  Str(r.StateHashAfter),
	})
}

// FingerprintState returns the hex SHA-256 fingerprint of s's hashed
// payload (state_hash excluded).
func FingerprintState(s *domain.EngineState) (string, error) {
	digest, _, err := Fingerprint(EngineStateValue(s))
	return digest, err
}

// MarshalState returns the canonical bytes for the full on-disk
// rules_state.json contents: s's hashed payload plus state_hash, which s
// is expected to already carry (callers refresh it via FingerprintState
// before calling this).
func MarshalState(s *domain.EngineState) ([]byte, error) {
	payload, ok := EngineStateValue(s).(map[string]Value)
	if !ok {
		panic("codec: EngineStateValue did not return an object")
	}
	payload["state_hash"] = Str(s.StateHash)
	return Marshal(Obj(payload))
}

// MarshalAuditRecord returns the canonical JSON-compatible bytes for one
// audit line, suitable for writing as a single line of audit_log.jsonl.
func MarshalAuditRecord(r domain.AuditRecord) ([]byte, error) {
	return Marshal(AuditRecordValue(r))
}
