/*
store.go - Persistence interface for roster snapshots

PURPOSE:
  Defines the boundary between the ledger logic and wherever rosters are
  kept. Every import produces a new snapshot; the latest snapshot is the
  active roster. Payments are recorded against the latest snapshot only.

LATEST WINS:
  Save never merges. A second import replaces the first as the active
  roster even if it has fewer participants; earlier snapshots remain
  listable for audit.

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-process, used by tests and the demo server
  - store/sqlite/sqlite.go: File-backed, survives restarts

SEE ALSO:
  - roster.go: The snapshot type
  - api/handlers.go: Drives the store from HTTP
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// ROSTER STORE
// =============================================================================

// RosterStore persists roster snapshots.
type RosterStore interface {
	// Save stores roster as the new active snapshot.
	Save(ctx context.Context, roster *Roster) error

	// Latest returns a copy of the active snapshot, or ErrEmptyRoster.
	Latest(ctx context.Context) (*Roster, error)

	// SetPaidAmount overwrites one participant's paid amount in the active
	// snapshot.
	SetPaidAmount(ctx context.Context, id ParticipantID, amount Amount) error

	// UpdatePaidAmount sets one participant's paid amount in the active
	// snapshot to whatever update returns for the stored participant. The
	// read and the write happen against the same snapshot with no writer in
	// between. It returns the updated participant.
	UpdatePaidAmount(ctx context.Context, id ParticipantID, update func(Participant) (Amount, error)) (Participant, error)

	// Snapshots lists stored snapshots, newest first.
	Snapshots(ctx context.Context) ([]SnapshotInfo, error)
}

// SnapshotInfo describes a stored roster without its participants.
type SnapshotInfo struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	LoadedAt     time.Time `json:"loaded_at"`
	Participants int       `json:"participants"`
}

// Info summarizes the roster as a SnapshotInfo.
func (r *Roster) Info() SnapshotInfo {
	return SnapshotInfo{ID: r.ID, Source: r.Source, LoadedAt: r.LoadedAt, Participants: r.Len()}
}
