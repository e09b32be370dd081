/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger types from the external API contract: amounts are sent both
  as integers and as display strings, and the derived state of a row
  (installment fills, delinquency) is computed once on the server.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Roster:
    ParticipantDTO, RosterResponse, ImportResponse

  Totals and delinquency:
    TotalsDTO, OverdueDTO, MonitorStatusDTO

  Payments:
    PaymentRequest

  Policy:
    PolicyDTO (wraps factory.PolicyJSON)

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"time"

	"github.com/warp/cuota-ledger/factory"
	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// ROSTER TYPES
// =============================================================================

// ParticipantDTO is one row of the roster with its derived state.
type ParticipantDTO struct {
	ID              ledger.ParticipantID `json:"id"`
	FullName        string               `json:"full_name"`
	PaidAmount      ledger.Amount        `json:"paid_amount"`
	PaidDisplay     string               `json:"paid_display"`
	RegisteredCount int                  `json:"registered_count"`
	Fills           []float64            `json:"fills"`
	FullyPaid       int                  `json:"fully_paid"`
	Delinquent      bool                 `json:"delinquent"`
}

// RosterResponse is the filtered view of the active roster.
type RosterResponse struct {
	SnapshotID   string           `json:"snapshot_id"`
	Query        string           `json:"query"`
	Filter       string           `json:"filter"`
	Date         string           `json:"date"`
	Overdue      []int            `json:"overdue"`
	Count        int              `json:"count"`
	Total        int              `json:"total"`
	Participants []ParticipantDTO `json:"participants"`
	Totals       TotalsDTO        `json:"totals"`
}

// ImportResponse acknowledges a new snapshot.
type ImportResponse struct {
	Snapshot ledger.SnapshotInfo `json:"snapshot"`
	Totals   TotalsDTO           `json:"totals"`
}

// =============================================================================
// TOTALS AND DELINQUENCY
// =============================================================================

// TotalsDTO is the aggregate of the complete roster.
type TotalsDTO struct {
	Collected          ledger.Amount `json:"collected"`
	CollectedDisplay   string        `json:"collected_display"`
	Registered         int           `json:"registered"`
	Participants       int           `json:"participants"`
	FullyPaid          int           `json:"fully_paid"`
	Obligation         ledger.Amount `json:"obligation"`
	Outstanding        ledger.Amount `json:"outstanding"`
	OutstandingDisplay string        `json:"outstanding_display"`
}

// OverdueDTO describes which installments are overdue on a date.
type OverdueDTO struct {
	Date       string   `json:"date"`
	Overdue    []int    `json:"overdue"`
	DueDates   []string `json:"due_dates"`
	Delinquent int      `json:"delinquent"`
}

// MonitorStatusDTO reports the last background delinquency check.
type MonitorStatusDTO struct {
	CheckedAt  *time.Time `json:"checked_at,omitempty"`
	Overdue    []int      `json:"overdue"`
	Delinquent int        `json:"delinquent"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentRequest overwrites a participant's paid amount. Amount accepts a
// number or a formatted string such as "$20.000".
type PaymentRequest struct {
	Amount any `json:"amount"`
}

// PaymentEventDTO is one audited paid amount edit.
type PaymentEventDTO struct {
	PreviousAmount ledger.Amount `json:"previous_amount"`
	Amount         ledger.Amount `json:"amount"`
	RecordedAt     time.Time     `json:"recorded_at"`
}

// =============================================================================
// POLICY AND SCENARIOS
// =============================================================================

// PolicyDTO is the active policy.
type PolicyDTO struct {
	factory.PolicyJSON
	Obligation ledger.Amount `json:"obligation"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Size        int    `json:"size"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERROR RESPONSE
// =============================================================================

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
