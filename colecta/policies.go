/*
Package colecta provides collection-specific presets and operations.

These functions build JSON policy definitions for the collections the
engine was written for and the demo roster used by the API scenarios.
They construct JSON directly so the factory package stays free of domain
presets.

USAGE:
  import "github.com/warp/cuota-ledger/colecta"

  jsonStr := colecta.Proyecto330JSON(0)
  policy, err := factory.NewPolicyFactory().ParsePolicy(jsonStr)
*/
package colecta

import (
	"encoding/json"
	"time"
)

// Proyecto330JSON returns JSON for the three-installment collection of 10000
// each, due from February, March and April. A year of 0 follows the
// current year.
func Proyecto330JSON(year int) string {
	pj := map[string]interface{}{
		"id":              "proyecto-330",
		"name":            "Colecta Proyecto 330",
		"currency_symbol": "$",
		"installment": map[string]interface{}{
			"unit":  10000,
			"count": 3,
		},
		"schedule": map[string]interface{}{
			"year":        year,
			"start_month": 1,
			"due_offsets": []int{1, 2, 3},
		},
		"ingestion": map[string]interface{}{
			"sort_by_first_token": true,
			"name_order":          "first_last",
		},
		"layout": map[string]interface{}{
			"rows_per_page": 50,
		},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// SheetOrderJSON returns JSON for a collection read in spreadsheet order with
// names printed "last first", as some exported sheets are kept.
func SheetOrderJSON(id, name string, year int) string {
	pj := map[string]interface{}{
		"id":   id,
		"name": name,
		"schedule": map[string]interface{}{
			"year":        year,
			"start_month": 1,
		},
		"ingestion": map[string]interface{}{
			"sort_by_first_token": false,
			"name_order":          "last_first",
		},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// MonthlyCollectionJSON returns JSON for count installments of unit each,
// the first due one month after startMonth.
func MonthlyCollectionJSON(id, name string, unit int64, count int, startMonth time.Month) string {
	offsets := make([]int, count)
	for i := range offsets {
		offsets[i] = i + 1
	}
	pj := map[string]interface{}{
		"id":   id,
		"name": name,
		"installment": map[string]interface{}{
			"unit":  unit,
			"count": count,
		},
		"schedule": map[string]interface{}{
			"start_month": int(startMonth),
			"due_offsets": offsets,
		},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}
