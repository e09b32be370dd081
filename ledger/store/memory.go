// Package store provides RosterStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	snapshots []*ledger.Roster
}

func NewMemory() *Memory {
	return &Memory{}
}

// Save appends a copy of roster; it becomes the active snapshot.
func (m *Memory) Save(_ context.Context, roster *ledger.Roster) error {
	if roster == nil {
		return ledger.ErrEmptyRoster
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, roster.Clone())
	return nil
}

// Latest returns a copy of the active snapshot.
func (m *Memory) Latest(_ context.Context) (*ledger.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.snapshots) == 0 {
		return nil, ledger.ErrEmptyRoster
	}
	return m.snapshots[len(m.snapshots)-1].Clone(), nil
}

func (m *Memory) SetPaidAmount(ctx context.Context, id ledger.ParticipantID, amount ledger.Amount) error {
	_, err := m.UpdatePaidAmount(ctx, id, func(ledger.Participant) (ledger.Amount, error) {
		return amount, nil
	})
	return err
}

// UpdatePaidAmount applies update to a participant of the active snapshot
// while holding the write lock.
func (m *Memory) UpdatePaidAmount(_ context.Context, id ledger.ParticipantID, update func(ledger.Participant) (ledger.Amount, error)) (ledger.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == 0 {
		return ledger.Participant{}, ledger.ErrEmptyRoster
	}
	roster := m.snapshots[len(m.snapshots)-1]
	p, ok := roster.Find(id)
	if !ok {
		return ledger.Participant{}, &ledger.ParticipantNotFoundError{ID: id}
	}
	amount, err := update(p)
	if err != nil {
		return ledger.Participant{}, err
	}
	if err := roster.RecordPayment(id, amount); err != nil {
		return ledger.Participant{}, err
	}
	p.PaidAmount = amount
	return p, nil
}

// Snapshots lists snapshots newest first.
func (m *Memory) Snapshots(_ context.Context) ([]ledger.SnapshotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.SnapshotInfo, 0, len(m.snapshots))
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		out = append(out, m.snapshots[i].Info())
	}
	return out, nil
}

// Reset drops every snapshot.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = nil
	return nil
}

var _ ledger.RosterStore = (*Memory)(nil)
