package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// ROSTER TESTS
// =============================================================================

func TestRecordPayment_SetsExactAmount(t *testing.T) {
	// GIVEN: A participant who paid 15000
	// WHEN: Recording a payment of 10000
	// THEN: The amount is set to 10000, not incremented
	r := sampleRoster()
	require.NoError(t, r.RecordPayment(2, 10000))

	p, ok := r.Find(2)
	require.True(t, ok)
	assert.Equal(t, ledger.Amount(10000), p.PaidAmount)
}

func TestRecordPayment_Errors(t *testing.T) {
	r := sampleRoster()

	err := r.RecordPayment(99, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrParticipantNotFound))
	assert.True(t, ledger.IsNotFound(err))
	var nf *ledger.ParticipantNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, ledger.ParticipantID(99), nf.ID)

	err = r.RecordPayment(1, -1)
	assert.True(t, errors.Is(err, ledger.ErrInvalidAmount))
	assert.True(t, ledger.IsClientError(err))
}

func TestRoster_CloneIsIndependent(t *testing.T) {
	r := sampleRoster()
	c := r.Clone()
	require.NoError(t, c.RecordPayment(1, 0))

	p, _ := r.Find(1)
	assert.Equal(t, ledger.Amount(30000), p.PaidAmount)
	assert.Equal(t, r.ID, c.ID)
}

func TestRoster_Nil(t *testing.T) {
	var r *ledger.Roster
	assert.Equal(t, 0, r.Len())
	_, ok := r.Find(1)
	assert.False(t, ok)
	assert.Nil(t, r.Clone())
}
