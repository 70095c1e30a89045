// Package ruleengine implements the Rule Evaluator: Rules A-E from the
// component design, a total function over
// {HISTORIC, SUPPLIER, HUMAN} x {NONE, QUOTE_ACCEPTED, QUOTE_REJECTED}
// once invalid combinations have been rejected by domain.Event.Validate.
package ruleengine

import (
	"github.com/preethamgouda/truth-engine/internal/domain"
	"github.com/preethamgouda/truth-engine/internal/mathutil"
)

// Result is the Rule Evaluator's output for one event: the price the
// engine asserts is true, the decision tag that produced it, any
// informational flags, and the item's state after this event.
type Result struct {
	FinalPriceCents int64
	Decision        domain.Decision
	Flags           []domain.Flag
	NewState        domain.PerItemState
}

// candidates holds the output of Rule A: candidate selection.
type candidates struct {
	historicPrice    int64
	historicPresent  bool
	supplierEligible bool
	supplierPrice    int64
}

// selectCandidates implements Rule A.
func selectCandidates(ts int64, cache domain.PerItemCache) candidates {
	c := candidates{
		historicPrice:   cache.LatestHistoric.PriceCents,
		historicPresent: cache.LatestHistoric.Present,
	}
	if cache.LatestSupplier.Present && ts-cache.LatestSupplier.Timestamp <= domain.SupplierEligibleWindowSeconds {
		c.supplierEligible = true
		c.supplierPrice = cache.LatestSupplier.PriceCents
	}
	return c
}

// effectiveBias implements Rule D: time decay, applied once per event and
// never mutating the stored bias directly.
func effectiveBias(ts int64, state domain.PerItemState) int64 {
	raw := state.BiasCents
	if state.LastUpdatedTS > 0 && (ts-state.LastUpdatedTS) > domain.DecayThresholdSeconds {
		return mathutil.FloorDiv(raw, 2)
	}
	return raw
}

// fallback implements the fallback function used by multiple Rule B
// branches: prefer an eligible supplier price, then a historic price,
// then FALLBACK_NO_DATA with the NO_DATA flag.
func fallback(c candidates, bias int64) (priceCents int64, decision domain.Decision, flags []domain.Flag) {
	switch {
	case c.supplierEligible:
		return c.supplierPrice + bias, domain.DecisionSupplierPlusBias, nil
	case c.historicPresent:
		return c.historicPrice + bias, domain.DecisionHistoricPlusBias, nil
	default:
		return 0, domain.DecisionFallbackNoData, []domain.Flag{domain.FlagNoData}
	}
}

// isAnomaly implements Rule E: the circuit breaker, evaluated only for
// HUMAN events when both a supplier reference is eligible and positive.
func isAnomaly(e domain.Event, c candidates) bool {
	if e.Source != domain.SourceHuman {
		return false
	}
	if !c.supplierEligible || c.supplierPrice <= 0 {
		return false
	}
	return e.PriceCents*100 > c.supplierPrice*150
}

// learn implements Rule C: appending an accepted human quote's delta from
// the supplier reference into the sliding window and recomputing bias.
func learn(state domain.PerItemState, delta int64) domain.PerItemState {
	deltas := append(append([]int64(nil), state.AcceptedHumanDeltasCents...), delta)
	if over := len(deltas) - domain.MaxDeltaWindow; over > 0 {
		deltas = deltas[over:]
	}
	state.AcceptedHumanDeltasCents = deltas
	state.BiasCents = mathutil.MedianInt(deltas)
	return state
}

// Evaluate applies Rules A-E to one event, given its item's current state
// and the run-local Per-Item Cache, and returns the decision and the
// item's state as it must be committed after this event.
func Evaluate(e domain.Event, state domain.PerItemState, cache domain.PerItemCache) Result {
	ts := e.Timestamp
	c := selectCandidates(ts, cache)
	bias := effectiveBias(ts, state)
	newState := state.Clone()

	var (
		finalPrice int64
		decision   domain.Decision
		flags      []domain.Flag
	)

	switch {
	case e.Source == domain.SourceHuman && e.Outcome == domain.OutcomeQuoteAccepted && !isAnomaly(e, c):
		// Rule B, case 1: accepted and not anomalous.
		finalPrice = e.PriceCents
		decision = domain.DecisionHumanAccepted
		if c.supplierEligible && c.supplierPrice > 0 {
			delta := e.PriceCents - c.supplierPrice
			newState = learn(newState, delta)
		}

	case e.Source == domain.SourceHuman && e.Outcome == domain.OutcomeQuoteAccepted:
		// Rule B, case 2: accepted but anomalous — fall back, flag it.
		finalPrice, _, flags = fallback(c, bias)
		decision = domain.DecisionAnomalyRejected
		flags = append(flags, domain.FlagAnomalyRejected)

	case e.Source == domain.SourceHuman && e.Outcome == domain.OutcomeQuoteRejected:
		// Rule B, case 3: rejected — the fallback is the engine's answer.
		finalPrice, decision, flags = fallback(c, bias)

	default:
		// Rule B, case 4: non-HUMAN, or HUMAN with no outcome.
		finalPrice, decision, flags = fallback(c, bias)
	}

	newState.ItemID = e.ItemID
	newState.LastUpdatedTS = ts

	return Result{
		FinalPriceCents: finalPrice,
		Decision:        decision,
		Flags:           flags,
		NewState:        newState,
	}
}
