package ledger_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// AGGREGATOR TESTS
// =============================================================================

func TestAggregate_Totals(t *testing.T) {
	totals := ledger.Aggregate(sampleRoster(), ledger.DefaultPlan())

	assert.Equal(t, ledger.Amount(74999), totals.Collected)
	assert.Equal(t, 6, totals.Registered)
	assert.Equal(t, 5, totals.Participants)
	assert.Equal(t, 1, totals.FullyPaid)
	assert.Equal(t, ledger.Amount(150000), totals.Obligation)
	assert.Equal(t, ledger.Amount(75001), totals.Outstanding)
}

func TestAggregate_IndependentOfFilter(t *testing.T) {
	// GIVEN: A roster and a narrow query over it
	// WHEN: Aggregating before and after querying
	// THEN: The totals are identical
	r := sampleRoster()
	before := ledger.Aggregate(r, ledger.DefaultPlan())
	_ = ledger.Query(r, "ana", ledger.FilterAtLeast3, ledger.DefaultPlan())
	assert.Equal(t, before, ledger.Aggregate(r, ledger.DefaultPlan()))
}

func TestAggregate_OverpaymentLeavesNoOutstanding(t *testing.T) {
	r := ledger.NewRoster([]ledger.Participant{{ID: 1, PaidAmount: 50000}})
	totals := ledger.Aggregate(r, ledger.DefaultPlan())
	assert.Equal(t, ledger.Amount(0), totals.Outstanding)
	assert.Equal(t, 1, totals.FullyPaid)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, ledger.Totals{}, ledger.Aggregate(nil, ledger.DefaultPlan()))
}

func TestAggregate_SaturatesAtCeiling(t *testing.T) {
	// GIVEN: Two participants whose payments together exceed the largest amount
	r := ledger.NewRoster([]ledger.Participant{
		{ID: 1, PaidAmount: math.MaxInt64},
		{ID: 2, PaidAmount: 1},
	})

	// WHEN: Aggregating with a plan whose obligation cannot be represented
	totals := ledger.Aggregate(r, ledger.Plan{Unit: math.MaxInt64 / 2, Count: 3})

	// THEN: Every total stays non-negative
	assert.Equal(t, ledger.Amount(math.MaxInt64), totals.Collected)
	assert.Equal(t, ledger.Amount(math.MaxInt64), totals.Obligation)
	assert.Equal(t, ledger.Amount(0), totals.Outstanding)
}
