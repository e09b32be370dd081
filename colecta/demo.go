package colecta

import (
	"math/rand/v2"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// DEMO ROSTER
// =============================================================================

// DemoSize is the roster size of the demo collection.
const DemoSize = 300

type demoEntry struct {
	name string
	paid int
}

// The first rows of the demo roster are fixed; the rest cycle demoNames.
var demoHead = []demoEntry{
	{"Victor Ortiz", 2},
	{"Maria Perez", 1},
	{"Juan Gomez", 2},
	{"Luisa Lopez", 1},
	{"Carlos Ramirez", 3},
	{"Ana Diaz", 2},
	{"Victor Ortiz", 1},
	{"Paula Mora", 2},
	{"Diego Torres", 3},
	{"Marcos Silva", 0},
}

var demoNames = []string{
	"Victor Ortiz", "Maria Perez", "Juan Gomez", "Luisa Lopez", "Carlos Ramirez",
	"Ana Diaz", "Diego Torres", "Paula Mora", "Marcos Silva", "Sofia Reyes",
}

// DemoRows returns n raw rows as an export of the demo collection would
// contain them. The same seed always yields the same rows. Paid totals are
// whole installments of plan.Unit, between none and all of them.
func DemoRows(n int, seed uint64, plan ledger.Plan) []ledger.RawRow {
	if plan.Unit <= 0 || plan.Count <= 0 {
		plan = ledger.DefaultPlan()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	rows := make([]ledger.RawRow, 0, max(n, 0))
	for i := 0; i < n; i++ {
		var e demoEntry
		if i < len(demoHead) {
			e = demoHead[i]
		} else {
			e = demoEntry{
				name: demoNames[(i-len(demoHead))%len(demoNames)],
				paid: rng.IntN(plan.Count + 1),
			}
		}
		if e.paid > plan.Count {
			e.paid = plan.Count
		}
		rows = append(rows, ledger.RawRow{
			"Nombre y Apellido": e.name,
			"Total":             ledger.FormatAmount(ledger.AmountForInstallments(e.paid, plan), ""),
		})
	}
	return rows
}
