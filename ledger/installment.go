package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// INSTALLMENT PROJECTOR - Cumulative amount to per-installment fill
// =============================================================================

// ProjectInstallments spreads a cumulative paid amount over the plan's
// installments in order. Each fraction is in [0, 1]; the remainder carried to
// the next installment shrinks by one unit per installment whether or not the
// previous one was completely covered.
//
//	ProjectInstallments(15000, DefaultPlan()) == []float64{1, 0.5, 0}
func ProjectInstallments(paid Amount, plan Plan) []float64 {
	plan = plan.normalized()
	unit := decimal.NewFromInt(int64(plan.Unit))

	fills := make([]float64, plan.Count)
	remaining := paid
	for i := range fills {
		covered := remaining
		if covered > plan.Unit {
			covered = plan.Unit
		}
		if covered > 0 {
			fills[i], _ = decimal.NewFromInt(int64(covered)).Div(unit).Float64()
		}
		remaining -= plan.Unit
		if remaining < 0 {
			remaining = 0
		}
	}
	return fills
}

// FullyPaidCount is the number of installments the amount covers completely,
// bounded to [0, plan.Count].
func FullyPaidCount(paid Amount, plan Plan) int {
	plan = plan.normalized()
	if paid <= 0 {
		return 0
	}
	n := paid / plan.Unit
	if n > Amount(plan.Count) {
		return plan.Count
	}
	return int(n)
}

// AmountForInstallments is the exact amount that pays n installments.
func AmountForInstallments(n int, plan Plan) Amount {
	plan = plan.normalized()
	if n < 0 {
		n = 0
	}
	if n > plan.Count {
		n = plan.Count
	}
	return mulAmount(plan.Unit, n)
}
