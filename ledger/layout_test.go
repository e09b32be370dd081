package ledger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// REPORT LAYOUT TESTS
// =============================================================================

func participants(n int) []ledger.Participant {
	out := make([]ledger.Participant, n)
	for i := range out {
		out[i] = ledger.Participant{
			ID:         ledger.ParticipantID(i + 1),
			FullName:   fmt.Sprintf("Participante %03d", i+1),
			PaidAmount: ledger.Amount((i % 4) * 10000),
		}
	}
	return out
}

func TestLayout_120RowsThreePages(t *testing.T) {
	// GIVEN: 120 filtered rows and 50 rows per page
	// WHEN: Laying out the report
	// THEN: 3 pages with rows 1-50, 51-100 and 101-120
	report := ledger.Layout(participants(120), ledger.OverdueSet{}, ledger.DefaultPolicy())

	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 120, report.Rows)

	page1 := report.RowsOnPage(1)
	page2 := report.RowsOnPage(2)
	page3 := report.RowsOnPage(3)
	require.Len(t, page1, 50)
	require.Len(t, page2, 50)
	require.Len(t, page3, 20)
	assert.Equal(t, 1, page1[0].Index)
	assert.Equal(t, 50, page1[49].Index)
	assert.Equal(t, 51, page2[0].Index)
	assert.Equal(t, 100, page2[49].Index)
	assert.Equal(t, 101, page3[0].Index)
	assert.Equal(t, 120, page3[19].Index)
}

func TestLayout_InstructionSequence(t *testing.T) {
	report := ledger.Layout(participants(3), ledger.OverdueSet{}, ledger.DefaultPolicy())

	kinds := []ledger.InstructionKind{}
	for _, in := range report.Instructions {
		kinds = append(kinds, in.Kind)
	}
	assert.Equal(t, []ledger.InstructionKind{
		ledger.KindPageStart,
		ledger.KindRow, ledger.KindRow, ledger.KindRow,
		ledger.KindPageFooter,
		ledger.KindSummary,
	}, kinds)

	last := report.Instructions[len(report.Instructions)-1]
	require.NotNil(t, last.Summary)
	assert.Equal(t, 1, last.Summary.Pages)
	assert.Equal(t, 3, last.Summary.Rows)
}

func TestLayout_EmptyRosterStillOnePage(t *testing.T) {
	report := ledger.Layout(nil, ledger.OverdueSet{1}, ledger.DefaultPolicy())

	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 0, report.Rows)
	require.Len(t, report.Instructions, 3)
	assert.Equal(t, ledger.KindPageStart, report.Instructions[0].Kind)
	assert.Equal(t, ledger.KindPageFooter, report.Instructions[1].Kind)
	assert.Equal(t, ledger.KindSummary, report.Instructions[2].Kind)
}

func TestLayout_RowContent(t *testing.T) {
	// GIVEN: Installments 1 and 2 overdue
	// WHEN: Laying out a partial payer and a two-installment payer
	// THEN: Fills follow the paid amount and only the partial payer is highlighted
	rows := []ledger.Participant{
		{ID: 7, FullName: "Ana", PaidAmount: 15000},
		{ID: 2, FullName: "Beto", PaidAmount: 20000},
	}
	report := ledger.Layout(rows, ledger.OverdueSet{1, 2}, ledger.DefaultPolicy())
	lines := report.RowsOnPage(1)
	require.Len(t, lines, 2)

	assert.Equal(t, 1, lines[0].Index)
	assert.Equal(t, ledger.ParticipantID(7), lines[0].ParticipantID)
	assert.Equal(t, []float64{1, 0.5, 0}, lines[0].Fills)
	assert.True(t, lines[0].Highlight)
	require.Len(t, lines[0].FillRects, 3)
	assert.Equal(t, 0.5, lines[0].FillRects[1].Fraction)

	assert.Equal(t, 2, lines[1].Index)
	assert.False(t, lines[1].Highlight)
	assert.Greater(t, lines[1].Y, lines[0].Y)
	assert.Equal(t, 1, report.Delinquent)
}

func TestLayout_PositionsRestartOnEachPage(t *testing.T) {
	policy := ledger.DefaultPolicy()
	policy.Layout.RowsPerPage = 2
	report := ledger.Layout(participants(5), ledger.OverdueSet{}, policy)

	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, report.RowsOnPage(1)[0].Y, report.RowsOnPage(2)[0].Y)
	assert.Equal(t, report.RowsOnPage(1)[0].Y, report.RowsOnPage(3)[0].Y)
}

func TestLayout_Deterministic(t *testing.T) {
	rows := participants(77)
	overdue := ledger.DefaultSchedule().OverdueInstallments(ledger.NewDate(2025, time.March, 2), ledger.DefaultPlan())

	a := ledger.Layout(rows, overdue, ledger.DefaultPolicy())
	b := ledger.Layout(rows, overdue, ledger.DefaultPolicy())
	assert.Equal(t, a, b)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, ledger.PageCount(0, 50))
	assert.Equal(t, 1, ledger.PageCount(50, 50))
	assert.Equal(t, 2, ledger.PageCount(51, 50))
	assert.Equal(t, 3, ledger.PageCount(120, 50))
	assert.Equal(t, 3, ledger.PageCount(120, 0))
}
