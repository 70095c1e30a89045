package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/preethamgouda/truth-engine/internal/domain"
)

// ReadEvents parses events.jsonl: one JSON object per line. A
// malformed line is reported as domain.ErrInvalidEvent with its 1-based
// line number; blank lines are skipped. Field-level validation
// (unknown source/outcome, negative price, outcome/source mismatch) is
// deferred to domain.Event.Validate, invoked once per event inside
// Pipeline.Run so that the error always carries the acting event_id.
func ReadEvents(r io.Reader) ([]domain.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var events []domain.Event
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e domain.Event
		dec := json.NewDecoder(strings.NewReader(line))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidEvent, lineNo, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: read events: %w", err)
	}
	return events, nil
}
