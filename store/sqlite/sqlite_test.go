package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cuota-ledger/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func roster(names ...string) *ledger.Roster {
	ps := make([]ledger.Participant, len(names))
	for i, n := range names {
		ps[i] = ledger.Participant{ID: ledger.ParticipantID(i + 1), FullName: n, PaidAmount: ledger.Amount(i * 10000), RegisteredCount: i}
	}
	r := ledger.NewRoster(ps)
	r.Source = "colecta.xlsx"
	r.LoadedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return r
}

// =============================================================================
// ROSTER STORE TESTS
// =============================================================================

func TestStore_EmptyHasNoRoster(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Latest(context.Background())
	assert.True(t, errors.Is(err, ledger.ErrEmptyRoster))
}

func TestStore_SaveAndLatest(t *testing.T) {
	// GIVEN: A saved roster
	// WHEN: Reading the active snapshot
	// THEN: Participants come back in the same order with the same values
	ctx := context.Background()
	s := newTestStore(t)

	in := roster("Carla", "Ana", "Beto")
	in.Participants[0].ID = 3
	in.Participants[2].ID = 1
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, "colecta.xlsx", out.Source)
	assert.True(t, in.LoadedAt.Equal(out.LoadedAt))
	assert.Equal(t, in.Participants, out.Participants)
}

func TestStore_LatestWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := roster("A", "B", "C")
	second := roster("D")
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 1, latest.Len())

	old, err := s.Roster(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, old.Len())

	infos, err := s.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, second.ID, infos[0].ID)
	assert.Equal(t, 1, infos[0].Participants)
	assert.Equal(t, 3, infos[1].Participants)
}

func TestStore_SetPaidAmount(t *testing.T) {
	// GIVEN: An active roster
	// WHEN: Setting a paid amount twice
	// THEN: The last value wins and both edits are in the audit trail
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, roster("Ana", "Beto")))

	require.NoError(t, s.SetPaidAmount(ctx, 2, 25000))
	require.NoError(t, s.SetPaidAmount(ctx, 2, 30000))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	p, ok := latest.Find(2)
	require.True(t, ok)
	assert.Equal(t, ledger.Amount(30000), p.PaidAmount)

	events, err := s.PaymentEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.Amount(10000), events[0].PreviousAmount)
	assert.Equal(t, ledger.Amount(25000), events[0].Amount)
	assert.Equal(t, ledger.Amount(25000), events[1].PreviousAmount)
}

func TestStore_SetPaidAmountErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.True(t, errors.Is(s.SetPaidAmount(ctx, 1, 100), ledger.ErrEmptyRoster))

	require.NoError(t, s.Save(ctx, roster("Ana")))
	assert.True(t, ledger.IsNotFound(s.SetPaidAmount(ctx, 42, 100)))
	assert.True(t, errors.Is(s.SetPaidAmount(ctx, 1, -5), ledger.ErrInvalidAmount))
}

func TestStore_UpdatePaidAmount(t *testing.T) {
	// GIVEN: An active roster and concurrent read-modify-write updates
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, roster("Ana", "Beto")))

	// WHEN: Each update adds 500 to the amount it was handed
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdatePaidAmount(ctx, 2, func(p ledger.Participant) (ledger.Amount, error) {
				return p.PaidAmount + 500, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// THEN: Every update is applied and audited
	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	p, ok := latest.Find(2)
	require.True(t, ok)
	assert.Equal(t, ledger.Amount(20000), p.PaidAmount)

	events, err := s.PaymentEvents(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, events, 20)
}

func TestStore_UpdatePaidAmountSeesStoredParticipant(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, roster("Ana", "Beto")))

	var seen ledger.Participant
	updated, err := s.UpdatePaidAmount(ctx, 2, func(p ledger.Participant) (ledger.Amount, error) {
		seen = p
		return 30000, nil
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Participant{ID: 2, FullName: "Beto", PaidAmount: 10000, RegisteredCount: 1}, seen)
	assert.Equal(t, ledger.Amount(30000), updated.PaidAmount)

	// A failing update leaves the amount and the audit trail untouched.
	_, err = s.UpdatePaidAmount(ctx, 2, func(ledger.Participant) (ledger.Amount, error) {
		return 0, ledger.ErrInvalidInstallment
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInstallment)
	events, err := s.PaymentEvents(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cuotas.db")

	s, err := New(path)
	require.NoError(t, err)
	in := roster("Ana", "Beto")
	require.NoError(t, s.Save(ctx, in))
	require.NoError(t, s.SetPaidAmount(ctx, 1, 12000))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	out, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	p, _ := out.Find(1)
	assert.Equal(t, ledger.Amount(12000), p.PaidAmount)
}

// =============================================================================
// POLICY STORE TESTS
// =============================================================================

func TestStore_Policies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	missing, err := s.GetPolicy(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.SavePolicy(ctx, PolicyRecord{ID: "p330", Name: "Proyecto 330", ConfigJSON: `{"id":"p330"}`}))
	require.NoError(t, s.SavePolicy(ctx, PolicyRecord{ID: "p330", Name: "Proyecto 330", ConfigJSON: `{"id":"p330","name":"x"}`}))

	got, err := s.GetPolicy(ctx, "p330")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, `{"id":"p330","name":"x"}`, got.ConfigJSON)

	all, err := s.ListPolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Reset(ctx))
	all, err = s.ListPolicies(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
