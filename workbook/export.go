package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// XLSX EXPORT - Roster back to a spreadsheet
// =============================================================================

// SheetName is the sheet Export writes.
const SheetName = "Colecta"

// Export writes participants as a workbook that Read and ledger.Ingest
// accept again: one installment column per plan installment holding the
// amount applied to it, then the total and the registrant count.
func Export(w io.Writer, participants []ledger.Participant, policy ledger.Policy) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	header := []any{"ID", "Nombre y Apellido"}
	for i := 0; i < policy.Plan.Count; i++ {
		header = append(header, fmt.Sprintf("Cuota %d", i+1))
	}
	header = append(header, "Total", "Inscriptos")
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, p := range participants {
		row := []any{int(p.ID), p.FullName}
		for _, fill := range ledger.ProjectInstallments(p.PaidAmount, policy.Plan) {
			row = append(row, int64(fill*float64(policy.Plan.Unit)))
		}
		row = append(row, int64(p.PaidAmount), p.RegisteredCount)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
