package colecta

import (
	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// INSTALLMENT TOGGLE
// =============================================================================

// ToggleTarget returns the paid amount that results from clicking
// installment index (0-based) of a participant who paid paid so far.
//
// Clicking a fully paid installment unpays it and every later one; clicking
// any other installment pays it and every earlier one. Partial payments are
// rounded to whole installments.
func ToggleTarget(paid ledger.Amount, index int, plan ledger.Plan) (ledger.Amount, error) {
	if index < 0 || index >= plan.Count {
		return 0, ledger.ErrInvalidInstallment
	}
	count := ledger.FullyPaidCount(paid, plan)
	n := index + 1
	if index < count {
		n = index
	}
	return ledger.AmountForInstallments(n, plan), nil
}

// ToggleInstallment returns the update that toggles installment index
// (0-based) of the participant it is handed, for use with
// ledger.RosterStore.UpdatePaidAmount.
func ToggleInstallment(index int, plan ledger.Plan) func(ledger.Participant) (ledger.Amount, error) {
	return func(p ledger.Participant) (ledger.Amount, error) {
		return ToggleTarget(p.PaidAmount, index, plan)
	}
}
