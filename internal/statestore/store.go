// Package statestore implements the State Store: loading and atomically
// saving rules_state.json, with integrity verification on load and a
// bounded retry around the transient-I/O part of an atomic write.
package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/preethamgouda/truth-engine/internal/codec"
	"github.com/preethamgouda/truth-engine/internal/domain"
)

// onDiskState mirrors the rules_state.json wire shape for
// decoding. Items are decoded without an item_id field (the map key
// supplies it) and seen_event_ids is a plain array.
type onDiskState struct {
	Version      int                      `json:"version"`
	Items        map[string]onDiskPerItem `json:"items"`
	SeenEventIDs []string                 `json:"seen_event_ids"`
	StateHash    string                   `json:"state_hash"`
}

type onDiskPerItem struct {
	LastUpdatedTS            int64   `json:"last_updated_ts"`
	AcceptedHumanDeltasCents []int64 `json:"accepted_human_deltas_cents"`
	BiasCents                int64   `json:"bias_cents"`
}

// Load reads the EngineState at path, returning a fresh empty state if
// the file does not exist. It fails with domain.ErrStateCorrupt if the
// file exists but its canonical fingerprint disagrees with its embedded
// state_hash.
func Load(path string) (*domain.EngineState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewEngineState(), nil
		}
		return nil, fmt.Errorf("statestore: read %s: %w", path, err)
	}

	var disk onDiskState
	if err := json.Unmarshal(raw, &disk); err != nil {
		return nil, fmt.Errorf("%w: %s: invalid json: %v", domain.ErrStateCorrupt, path, err)
	}

	state := &domain.EngineState{
		Version:      disk.Version,
		Items:        make(map[string]domain.PerItemState, len(disk.Items)),
		SeenEventIDs: make(map[string]struct{}, len(disk.SeenEventIDs)),
		StateHash:    disk.StateHash,
	}
	for id, item := range disk.Items {
		state.Items[id] = domain.PerItemState{
			ItemID:                   id,
			LastUpdatedTS:            item.LastUpdatedTS,
			AcceptedHumanDeltasCents: item.AcceptedHumanDeltasCents,
			BiasCents:                item.BiasCents,
		}
	}
	for _, id := range disk.SeenEventIDs {
		state.SeenEventIDs[id] = struct{}{}
	}

	want, err := codec.FingerprintState(state)
	if err != nil {
		return nil, fmt.Errorf("statestore: fingerprint %s: %w", path, err)
	}
	if want != disk.StateHash {
		return nil, fmt.Errorf("%w: %s: embedded state_hash %s does not match recomputed %s",
			domain.ErrStateCorrupt, path, disk.StateHash, want)
	}

	return state, nil
}

// Save refreshes state's fingerprint and atomically writes the canonical
// JSON to path: write to a temporary sibling, then rename into place, so
// a reader never observes a partial file. The temp-write step is retried
// a bounded number of times against transient filesystem errors (a file
// briefly locked by a concurrent backup/AV scan); content-integrity
// failures are never retried.
func Save(path string, state *domain.EngineState) error {
	hash, err := codec.FingerprintState(state)
	if err != nil {
		return fmt.Errorf("statestore: fingerprint: %w", err)
	}
	state.StateHash = hash

	body, err := codec.MarshalState(state)
	if err != nil {
		return fmt.Errorf("statestore: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	var tmpPath string
	writeAndRename := func() error {
		tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
		if err != nil {
			return err
		}
		tmpPath = tmp.Name()
		if _, err := tmp.Write(body); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpPath)
			return err
		}
		if err := os.Rename(tmpPath, path); err != nil {
			os.Remove(tmpPath)
			return err
		}
		return nil
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Second
	if err := backoff.Retry(writeAndRename, backoff.WithMaxRetries(retryPolicy, 4)); err != nil {
		return fmt.Errorf("statestore: atomic write %s: %w", path, err)
	}
	return nil
}
