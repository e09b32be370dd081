/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON collection policies into ledger.Policy values. This lets an
  organizer change the installment price, the due calendar, the way names
  are read from the spreadsheet or the page capacity of the printed report
  without touching code.

JSON SCHEMA:
  {
    "id": "proyecto-330",
    "name": "Colecta Proyecto 330",
    "currency_symbol": "$",
    "installment": {"unit": 10000, "count": 3},
    "schedule": {"year": 2025, "start_month": 1, "due_offsets": [1, 2, 3]},
    "ingestion": {"sort_by_first_token": true, "name_order": "first_last"},
    "layout": {"rows_per_page": 50}
  }

DEFAULTS:
  Every section is optional. Missing values fall back to ledger.DefaultPolicy(),
  so "{}" is a valid policy. A year of 0 (or none) evaluates the schedule
  against the current year.

USAGE:
  factory := NewPolicyFactory()

  // From JSON string
  policy, err := factory.ParsePolicy(jsonString)

  // From the built-in preset
  policy, err := factory.ParsePolicy(colecta.Proyecto330JSON())

SEE ALSO:
  - ledger/policy.go: Policy type definition
  - colecta/policies.go: Built-in presets
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy.
type PolicyJSON struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	CurrencySymbol string           `json:"currency_symbol,omitempty"`
	Installment    *InstallmentJSON `json:"installment,omitempty"`
	Schedule       *ScheduleJSON    `json:"schedule,omitempty"`
	Ingestion      *IngestionJSON   `json:"ingestion,omitempty"`
	Layout         *LayoutJSON      `json:"layout,omitempty"`
}

// InstallmentJSON is the price and number of installments.
type InstallmentJSON struct {
	Unit  int64 `json:"unit,omitempty"`
	Count int   `json:"count,omitempty"`
}

// ScheduleJSON anchors the installments to the calendar.
type ScheduleJSON struct {
	Year       int   `json:"year,omitempty"`
	StartMonth int   `json:"start_month,omitempty"` // 1-12
	DueOffsets []int `json:"due_offsets,omitempty"` // months after the anchor
}

// IngestionJSON selects the spreadsheet reading variant.
type IngestionJSON struct {
	SortByFirstToken *bool  `json:"sort_by_first_token,omitempty"`
	NameOrder        string `json:"name_order,omitempty"` // first_last, last_first
}

// LayoutJSON sets page capacity and geometry (millimetres).
type LayoutJSON struct {
	RowsPerPage int     `json:"rows_per_page,omitempty"`
	PageWidth   float64 `json:"page_width,omitempty"`
	PageHeight  float64 `json:"page_height,omitempty"`
	MarginLeft  float64 `json:"margin_left,omitempty"`
	MarginRight float64 `json:"margin_right,omitempty"`
	MarginTop   float64 `json:"margin_top,omitempty"`
	RowHeight   float64 `json:"row_height,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to ledger policies.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON string into a validated Policy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (*ledger.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", &ledger.PolicyError{Field: "json", Message: err.Error()})
	}

	return f.FromJSON(pj)
}

// FromJSON converts PolicyJSON to a validated ledger.Policy.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*ledger.Policy, error) {
	policy := ledger.DefaultPolicy()

	if pj.ID != "" {
		policy.ID = pj.ID
	}
	if pj.Name != "" {
		policy.Name = pj.Name
	}
	if pj.CurrencySymbol != "" {
		policy.CurrencySymbol = pj.CurrencySymbol
	}

	if ij := pj.Installment; ij != nil {
		if ij.Unit != 0 {
			policy.Plan.Unit = ledger.Amount(ij.Unit)
		}
		if ij.Count != 0 {
			policy.Plan.Count = ij.Count
		}
	}

	if sj := pj.Schedule; sj != nil {
		policy.Schedule.Year = sj.Year
		if sj.StartMonth != 0 {
			policy.Schedule.StartMonth = time.Month(sj.StartMonth)
		}
		if len(sj.DueOffsets) > 0 {
			policy.Schedule.DueOffsets = append([]int(nil), sj.DueOffsets...)
		}
	}

	if ij := pj.Ingestion; ij != nil {
		if ij.SortByFirstToken != nil {
			policy.Ingestion.SortByFirstToken = *ij.SortByFirstToken
		}
		if ij.NameOrder != "" {
			policy.Ingestion.NameOrder = ledger.NameOrder(ij.NameOrder)
		}
	}

	if lj := pj.Layout; lj != nil {
		applyLayout(&policy.Layout, *lj)
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// ToJSON converts a Policy to PolicyJSON.
func (f *PolicyFactory) ToJSON(policy *ledger.Policy) PolicyJSON {
	sort := policy.Ingestion.SortByFirstToken
	return PolicyJSON{
		ID:             policy.ID,
		Name:           policy.Name,
		CurrencySymbol: policy.CurrencySymbol,
		Installment: &InstallmentJSON{
			Unit:  int64(policy.Plan.Unit),
			Count: policy.Plan.Count,
		},
		Schedule: &ScheduleJSON{
			Year:       policy.Schedule.Year,
			StartMonth: int(policy.Schedule.StartMonth),
			DueOffsets: append([]int(nil), policy.Schedule.DueOffsets...),
		},
		Ingestion: &IngestionJSON{
			SortByFirstToken: &sort,
			NameOrder:        string(policy.Ingestion.NameOrder),
		},
		Layout: &LayoutJSON{
			RowsPerPage: policy.Layout.RowsPerPage,
			PageWidth:   policy.Layout.PageWidth,
			PageHeight:  policy.Layout.PageHeight,
			MarginLeft:  policy.Layout.MarginLeft,
			MarginRight: policy.Layout.MarginRight,
			MarginTop:   policy.Layout.MarginTop,
			RowHeight:   policy.Layout.RowHeight,
		},
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func applyLayout(cfg *ledger.LayoutConfig, lj LayoutJSON) {
	if lj.RowsPerPage != 0 {
		cfg.RowsPerPage = lj.RowsPerPage
	}
	if lj.PageWidth > 0 {
		cfg.PageWidth = lj.PageWidth
	}
	if lj.PageHeight > 0 {
		cfg.PageHeight = lj.PageHeight
	}
	if lj.MarginLeft > 0 {
		cfg.MarginLeft = lj.MarginLeft
	}
	if lj.MarginRight > 0 {
		cfg.MarginRight = lj.MarginRight
	}
	if lj.MarginTop > 0 {
		cfg.MarginTop = lj.MarginTop
	}
	if lj.RowHeight > 0 {
		cfg.RowHeight = lj.RowHeight
	}
}
