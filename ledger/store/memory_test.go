package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cuota-ledger/ledger"
)

func TestMemory_LatestWins(t *testing.T) {
	// GIVEN: Two imports, the second smaller than the first
	// WHEN: Reading the active roster
	// THEN: Only the second import is visible
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Latest(ctx)
	assert.True(t, errors.Is(err, ledger.ErrEmptyRoster))

	first := ledger.NewRoster([]ledger.Participant{{ID: 1, FullName: "Ana"}, {ID: 2, FullName: "Beto"}})
	second := ledger.NewRoster([]ledger.Participant{{ID: 1, FullName: "Carla"}})
	require.NoError(t, m.Save(ctx, first))
	require.NoError(t, m.Save(ctx, second))

	latest, err := m.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 1, latest.Len())

	infos, err := m.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, second.ID, infos[0].ID)
	assert.Equal(t, 2, infos[1].Participants)
}

func TestMemory_SetPaidAmount(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.SetPaidAmount(ctx, 1, 100)
	assert.True(t, errors.Is(err, ledger.ErrEmptyRoster))

	require.NoError(t, m.Save(ctx, ledger.NewRoster([]ledger.Participant{{ID: 1, FullName: "Ana", PaidAmount: 5000}})))
	require.NoError(t, m.SetPaidAmount(ctx, 1, 20000))

	latest, err := m.Latest(ctx)
	require.NoError(t, err)
	p, ok := latest.Find(1)
	require.True(t, ok)
	assert.Equal(t, ledger.Amount(20000), p.PaidAmount)

	err = m.SetPaidAmount(ctx, 99, 1)
	assert.True(t, ledger.IsNotFound(err))
	assert.True(t, errors.Is(m.SetPaidAmount(ctx, 1, -1), ledger.ErrInvalidAmount))
}

func TestMemory_UpdatePaidAmount(t *testing.T) {
	// GIVEN: A participant and many concurrent read-modify-write updates
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, ledger.NewRoster([]ledger.Participant{{ID: 1, FullName: "Ana"}})))

	// WHEN: Each update adds 100 to the amount it was handed
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.UpdatePaidAmount(ctx, 1, func(p ledger.Participant) (ledger.Amount, error) {
				return p.PaidAmount + 100, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// THEN: No update was lost
	latest, err := m.Latest(ctx)
	require.NoError(t, err)
	p, _ := latest.Find(1)
	assert.Equal(t, ledger.Amount(5000), p.PaidAmount)
}

func TestMemory_UpdatePaidAmountError(t *testing.T) {
	// GIVEN: An update that fails
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, ledger.NewRoster([]ledger.Participant{{ID: 1, FullName: "Ana", PaidAmount: 7000}})))

	// WHEN: Applying it
	_, err := m.UpdatePaidAmount(ctx, 1, func(ledger.Participant) (ledger.Amount, error) {
		return 0, ledger.ErrInvalidInstallment
	})

	// THEN: The error is returned and the amount is untouched
	assert.ErrorIs(t, err, ledger.ErrInvalidInstallment)
	latest, err := m.Latest(ctx)
	require.NoError(t, err)
	p, _ := latest.Find(1)
	assert.Equal(t, ledger.Amount(7000), p.PaidAmount)
}

func TestMemory_ReadsAreCopies(t *testing.T) {
	// GIVEN: A saved roster
	// WHEN: The caller mutates what Latest returned
	// THEN: The stored snapshot is unchanged
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, ledger.NewRoster([]ledger.Participant{{ID: 1, FullName: "Ana"}})))

	r, err := m.Latest(ctx)
	require.NoError(t, err)
	r.Participants[0].PaidAmount = 99999

	again, err := m.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Amount(0), again.Participants[0].PaidAmount)
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, ledger.NewRoster([]ledger.Participant{{ID: 1, FullName: "Ana"}})))
	require.NoError(t, m.Reset(ctx))

	_, err := m.Latest(ctx)
	assert.ErrorIs(t, err, ledger.ErrEmptyRoster)
	snaps, err := m.Snapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
