/*
Package ledger provides the payment ledger normalization and reporting engine.

PURPOSE:
  This package turns irregular spreadsheet rows into a canonical roster of
  participants and answers every question the rest of the system asks about
  it: how much each participant paid, which installments that covers, who is
  behind schedule, who matches a search, what the totals are, and how the
  printable report is laid out page by page.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A non-negative integer quantity of currency units
  - Participant: One canonical roster record (one per input row)
  - RawRow: One spreadsheet row as handed over by the workbook source
  - Plan: The installment price and count of a collection

DESIGN PRINCIPLES:
  1. Best effort: Malformed cells degrade to zero, rows are never dropped
  2. Cumulative: A single paid amount is the only source of truth
  3. Pure: Query, aggregate and layout never mutate the roster
  4. Explicit: No package-level roster; callers own and pass it

USAGE:
  roster := ledger.Ingest(rows, policy)
  matches := ledger.Query(roster, "perez", ledger.FilterAtLeast1, policy.Plan)
  totals := ledger.Aggregate(roster, policy.Plan)

SEE ALSO:
  - amount.go: Raw cell normalization
  - ingest.go: Row to participant mapping
  - installment.go: Per-installment fill projection
  - delinquency.go: Calendar-based overdue evaluation
  - layout.go: Report pagination
*/
package ledger

import (
	"strconv"
	"strings"
)

// =============================================================================
// AMOUNT - Canonical currency units
// =============================================================================

// Amount is a quantity of currency units. Normalized amounts are never negative.
type Amount int64

// String renders the amount the way the collection prints it: "$10.000".
func (a Amount) String() string { return FormatAmount(a, "$") }

// FormatAmount renders a with dot thousands separators and the given symbol.
func FormatAmount(a Amount, symbol string) string {
	neg := a < 0
	if neg {
		a = -a
	}
	digits := strconv.FormatInt(int64(a), 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// =============================================================================
// PLAN - Installment price and count
// =============================================================================

const (
	// InstallmentUnit is the price of one installment.
	InstallmentUnit Amount = 10000

	// InstallmentCount is the number of installments per participant.
	InstallmentCount = 3
)

// Plan describes what every participant owes.
type Plan struct {
	Unit  Amount
	Count int
}

// DefaultPlan is three installments of 10000.
func DefaultPlan() Plan {
	return Plan{Unit: InstallmentUnit, Count: InstallmentCount}
}

// Obligation is the total a single participant owes.
func (p Plan) Obligation() Amount { return mulAmount(p.Unit, p.Count) }

func (p Plan) normalized() Plan {
	if p.Unit <= 0 {
		p.Unit = InstallmentUnit
	}
	if p.Count <= 0 {
		p.Count = InstallmentCount
	}
	return p
}

// =============================================================================
// PARTICIPANT - Canonical roster record
// =============================================================================

// ParticipantID is the 1-based ingestion ordinal of a participant.
type ParticipantID int

func (id ParticipantID) String() string { return strconv.Itoa(int(id)) }

// Participant is one row of the collection after normalization.
type Participant struct {
	ID              ParticipantID
	FullName        string
	PaidAmount      Amount
	RegisteredCount int
}

// =============================================================================
// RAW ROW - Input from the workbook source
// =============================================================================

// RawRow maps a header name to a raw cell value. Values are strings, numbers
// or nil; header names are matched case- and accent-insensitively.
type RawRow map[string]any
