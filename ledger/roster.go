package ledger

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROSTER - Ordered snapshot of all participants
// =============================================================================

// Roster is the full ordered set of participants produced by one load.
// A new load replaces it wholesale; the only in-place change is RecordPayment.
type Roster struct {
	ID           string
	Source       string
	LoadedAt     time.Time
	Participants []Participant
}

// NewRoster wraps participants in a snapshot with a fresh id.
func NewRoster(participants []Participant) *Roster {
	return &Roster{ID: uuid.NewString(), Participants: participants}
}

// Len returns the number of participants.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Participants)
}

// Find returns the participant with the given id.
func (r *Roster) Find(id ParticipantID) (Participant, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.Participants[i], true
	}
	return Participant{}, false
}

// RecordPayment sets the participant's paid amount to exactly amount.
// The caller must hold exclusive access to the roster.
func (r *Roster) RecordPayment(id ParticipantID, amount Amount) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	i := r.indexOf(id)
	if i < 0 {
		return &ParticipantNotFoundError{ID: id}
	}
	r.Participants[i].PaidAmount = amount
	return nil
}

// Clone returns a deep copy that shares nothing with r.
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	out := *r
	out.Participants = make([]Participant, len(r.Participants))
	copy(out.Participants, r.Participants)
	return &out
}

func (r *Roster) indexOf(id ParticipantID) int {
	if r == nil {
		return -1
	}
	for i, p := range r.Participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}
