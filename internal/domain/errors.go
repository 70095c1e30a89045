package domain

import "errors"

// Sentinel errors for the error kinds named in the error handling design.
// Callers compare with errors.Is; wrapped context is added with
// fmt.Errorf("%w: ...", ErrXxx) at the point of detection.
var (
	// ErrInvalidEvent marks malformed input: bad JSON, a missing field, an
	// unknown source/outcome, a negative price, or a non-NONE outcome on a
	// non-HUMAN event. Fatal: the run aborts before any state mutation for
	// that event.
	ErrInvalidEvent = errors.New("INVALID_EVENT")

	// ErrOutOfOrder marks a timestamp that decreased after sorting, which
	// indicates a bug in the ordering stage rather than a data problem.
	ErrOutOfOrder = errors.New("OUT_OF_ORDER")

	// ErrStateCorrupt marks an on-disk state file whose embedded
	// state_hash disagrees with the recomputed fingerprint. Never
	// repaired automatically.
	ErrStateCorrupt = errors.New("STATE_CORRUPT")

	// ErrReplayMismatch marks a replay whose final hash does not equal
	// the expected hash.
	ErrReplayMismatch = errors.New("REPLAY_MISMATCH")
)
