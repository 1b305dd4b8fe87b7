package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	terminal := []string{
		StatusCompleted, StatusNoShow, StatusCancelledByUser,
		StatusCancelledByRestaurant, StatusDeclinedByRestaurant,
		StatusAutoDeclined, StatusAcceptanceFailed,
	}
	for _, status := range terminal {
		assert.True(t, IsTerminal(status), status)
		assert.False(t, IsBlocking(status), status)
		assert.Nil(t, NextStatuses(status), status)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusConfirmed, StatusNoShow))
	assert.True(t, CanTransition(StatusSeated, StatusPayment))
	assert.True(t, CanTransition(StatusOrdered, StatusMainCourse))

	// No going backwards, no skipping into a table from nowhere.
	assert.False(t, CanTransition(StatusSeated, StatusArrived))
	assert.False(t, CanTransition(StatusPayment, StatusDessert))
	assert.False(t, CanTransition(StatusPending, StatusSeated))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition("bogus", StatusPending))
}

func TestProgressMonotonicAlongCanonicalSequence(t *testing.T) {
	prev := -1
	for _, status := range CanonicalSequence {
		p := StatusProgress(status)
		require.Greater(t, p, prev, status)
		prev = p
	}
	assert.Equal(t, 0, StatusProgress(StatusPending))
	assert.Equal(t, 100, StatusProgress(StatusCompleted))
}

func TestNextStatusesReturnsCopy(t *testing.T) {
	next := NextStatuses(StatusDessert)
	require.Equal(t, []string{StatusPayment}, next)

	next[0] = "mutated"
	assert.Equal(t, []string{StatusPayment}, NextStatuses(StatusDessert))
}

func TestEstimateRemainingMinutes(t *testing.T) {
	// Full turn time before the party sits down.
	assert.Equal(t, 90, EstimateRemainingMinutes(StatusPending, 90))
	assert.Equal(t, 90, EstimateRemainingMinutes(StatusConfirmed, 90))
	assert.Equal(t, 90, EstimateRemainingMinutes(StatusArrived, 90))

	// Scales with progress once seated.
	assert.Equal(t, 72, EstimateRemainingMinutes(StatusSeated, 90))
	assert.Equal(t, 31, EstimateRemainingMinutes(StatusMainCourse, 90))
	assert.Equal(t, 9, EstimateRemainingMinutes(StatusPayment, 90))

	// Terminal statuses hold no tables.
	assert.Equal(t, 0, EstimateRemainingMinutes(StatusCompleted, 90))
	assert.Equal(t, 0, EstimateRemainingMinutes(StatusNoShow, 90))
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range CanonicalSequence {
		assert.True(t, IsValidStatus(status), status)
	}
	assert.True(t, IsValidStatus(StatusAutoDeclined))
	assert.False(t, IsValidStatus("brunching"))
}

func TestBookingOverlaps(t *testing.T) {
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	b := &Booking{StartAt: start, TurnTimeMinutes: 90}

	assert.Equal(t, start.Add(90*time.Minute), b.EndAt())

	// Touching intervals do not overlap.
	assert.False(t, b.Overlaps(start.Add(90*time.Minute), start.Add(180*time.Minute)))
	assert.False(t, b.Overlaps(start.Add(-60*time.Minute), start))

	assert.True(t, b.Overlaps(start.Add(89*time.Minute), start.Add(180*time.Minute)))
	assert.True(t, b.Overlaps(start.Add(-60*time.Minute), start.Add(time.Minute)))
	assert.True(t, b.Overlaps(start.Add(30*time.Minute), start.Add(45*time.Minute)))
}

func TestBookingHoldsTable(t *testing.T) {
	b := &Booking{TableIDs: []int64{3, 7}}
	assert.True(t, b.HoldsTable(3))
	assert.True(t, b.HoldsTable(7))
	assert.False(t, b.HoldsTable(5))
}
