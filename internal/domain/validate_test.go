package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() Event {
	return Event{
		EventID:    "e1",
		ItemID:     "item-1",
		Timestamp:  1000,
		Source:     SourceHuman,
		PriceCents: 500,
		Outcome:    OutcomeQuoteAccepted,
	}
}

func TestEventValidate(t *testing.T) {
	t.Run("valid event passes", func(t *testing.T) {
		require.NoError(t, validEvent().Validate())
	})

	t.Run("empty event_id is rejected", func(t *testing.T) {
		e := validEvent()
		e.EventID = ""
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("empty item_id is rejected", func(t *testing.T) {
		e := validEvent()
		e.ItemID = ""
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("unknown source is rejected", func(t *testing.T) {
		e := validEvent()
		e.Source = "ROBOT"
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("unknown outcome is rejected", func(t *testing.T) {
		e := validEvent()
		e.Outcome = "MAYBE"
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("non-human source with non-NONE outcome is rejected", func(t *testing.T) {
		e := validEvent()
		e.Source = SourceHistoric
		e.Outcome = OutcomeQuoteAccepted
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("non-human source with NONE outcome is fine", func(t *testing.T) {
		e := validEvent()
		e.Source = SourceHistoric
		e.Outcome = OutcomeNone
		require.NoError(t, e.Validate())
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		e := validEvent()
		e.PriceCents = -1
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("zero price is allowed", func(t *testing.T) {
		e := validEvent()
		e.PriceCents = 0
		require.NoError(t, e.Validate())
	})

	t.Run("human event with NONE outcome is fine", func(t *testing.T) {
		e := validEvent()
		e.Outcome = OutcomeNone
		require.NoError(t, e.Validate())
	})
}

func TestPerItemStateClone(t *testing.T) {
	orig := PerItemState{
		ItemID:                   "item-1",
		LastUpdatedTS:            10,
		AcceptedHumanDeltasCents: []int64{1, 2, 3},
		BiasCents:                5,
	}
	clone := orig.Clone()
	clone.AcceptedHumanDeltasCents[0] = 999
	assert.Equal(t, int64(1), orig.AcceptedHumanDeltasCents[0], "Clone must deep-copy the delta slice")
	assert.Equal(t, orig.ItemID, clone.ItemID)
}

func TestNewEngineState(t *testing.T) {
	s := NewEngineState()
	assert.Equal(t, CurrentVersion, s.Version)
	assert.NotNil(t, s.Items)
	assert.NotNil(t, s.SeenEventIDs)
	assert.Empty(t, s.Items)
	assert.Empty(t, s.SeenEventIDs)
}
