/*
policy.go - Collection policy: what is owed, when, and how rows are read

PURPOSE:
  A Policy bundles every configuration constant the engine needs so that
  nothing is hard-coded against the wall clock or a single spreadsheet
  variant. The factory package builds policies from JSON; colecta ships the
  built-in preset.

POLICY COMPONENTS:
  Plan:      Installment price and count (10000 x 3 by default)
  Schedule:  Calendar anchor and overdue offsets per installment
  Ingestion: Name order and whether the roster is re-sorted after load
  Layout:    Page capacity and row geometry of the printable report

SEE ALSO:
  - factory/policy.go: JSON to Policy conversion
  - colecta/policies.go: Built-in presets
*/
package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// INGESTION POLICY
// =============================================================================

// NameOrder decides how separate first and last name columns are joined.
type NameOrder string

const (
	NameFirstLast NameOrder = "first_last" // "Maria Perez"
	NameLastFirst NameOrder = "last_first" // "Perez Maria"
)

// IngestPolicy captures the variants observed across spreadsheet layouts.
type IngestPolicy struct {
	// SortByFirstToken re-orders the roster by the first word of the full
	// name, case-insensitively. Ids keep the original row order either way.
	SortByFirstToken bool

	// NameOrder applies when first and last names come in separate columns.
	NameOrder NameOrder
}

// DefaultIngestPolicy sorts by first token and joins names as "first last".
func DefaultIngestPolicy() IngestPolicy {
	return IngestPolicy{SortByFirstToken: true, NameOrder: NameFirstLast}
}

// =============================================================================
// POLICY
// =============================================================================

// Policy is the complete configuration of one collection.
type Policy struct {
	ID             string
	Name           string
	CurrencySymbol string
	Plan           Plan
	Schedule       Schedule
	Ingestion      IngestPolicy
	Layout         LayoutConfig
}

// DefaultPolicy returns the configuration used when nothing else is given.
func DefaultPolicy() Policy {
	return Policy{
		ID:             "default",
		Name:           "Colecta",
		CurrencySymbol: "$",
		Plan:           DefaultPlan(),
		Schedule:       DefaultSchedule(),
		Ingestion:      DefaultIngestPolicy(),
		Layout:         DefaultLayoutConfig(),
	}
}

// Validate checks the policy for values the engine cannot work with.
func (p Policy) Validate() error {
	if p.Plan.Unit <= 0 {
		return &PolicyError{Field: "installment.unit", Message: "must be positive"}
	}
	if p.Plan.Count <= 0 {
		return &PolicyError{Field: "installment.count", Message: "must be positive"}
	}
	if p.Schedule.StartMonth < time.January || p.Schedule.StartMonth > time.December {
		return &PolicyError{Field: "schedule.start_month", Message: fmt.Sprintf("month %d out of range", p.Schedule.StartMonth)}
	}
	prev := 0
	for i, off := range p.Schedule.DueOffsets {
		if off < prev {
			return &PolicyError{Field: "schedule.due_offsets", Message: fmt.Sprintf("offset %d decreases", i+1)}
		}
		prev = off
	}
	switch p.Ingestion.NameOrder {
	case NameFirstLast, NameLastFirst:
	default:
		return &PolicyError{Field: "ingestion.name_order", Message: fmt.Sprintf("unknown order %q", p.Ingestion.NameOrder)}
	}
	if p.Layout.RowsPerPage <= 0 {
		return &PolicyError{Field: "layout.rows_per_page", Message: "must be positive"}
	}
	return nil
}
