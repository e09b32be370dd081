package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// DELINQUENCY POLICY TESTS
// =============================================================================

func fixedSchedule() ledger.Schedule {
	return ledger.Schedule{Year: 2025, StartMonth: time.January, DueOffsets: []int{1, 2, 3}}
}

func TestOverdueInstallments_MonthBoundaries(t *testing.T) {
	plan := ledger.DefaultPlan()
	s := fixedSchedule()

	tests := []struct {
		today time.Time
		want  ledger.OverdueSet
	}{
		{ledger.NewDate(2025, time.January, 15), ledger.OverdueSet{}},
		{ledger.NewDate(2025, time.January, 31), ledger.OverdueSet{}},
		{ledger.NewDate(2025, time.February, 1), ledger.OverdueSet{1}},
		{ledger.NewDate(2025, time.March, 1), ledger.OverdueSet{1, 2}},
		{ledger.NewDate(2025, time.March, 31), ledger.OverdueSet{1, 2}},
		{ledger.NewDate(2025, time.April, 1), ledger.OverdueSet{1, 2, 3}},
		{ledger.NewDate(2025, time.December, 31), ledger.OverdueSet{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.today.Format(ledger.DateLayout), func(t *testing.T) {
			assert.Equal(t, tt.want, s.OverdueInstallments(tt.today, plan))
		})
	}
}

func TestOverdueInstallments_IgnoresTimeOfDay(t *testing.T) {
	s := fixedSchedule()
	lateFeb := time.Date(2025, time.February, 28, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, ledger.OverdueSet{1}, s.OverdueInstallments(lateFeb, ledger.DefaultPlan()))
}

func TestDelinquency_ThirdMonth(t *testing.T) {
	// GIVEN: Today is the first day of the third month of the collection
	// WHEN: Evaluating two participants
	// THEN: Installments 1 and 2 are overdue; count 1 is delinquent, count 2 is not
	plan := ledger.DefaultPlan()
	overdue := fixedSchedule().OverdueInstallments(ledger.NewDate(2025, time.March, 1), plan)

	assert.True(t, overdue.Contains(1))
	assert.True(t, overdue.Contains(2))
	assert.False(t, overdue.Contains(3))
	assert.Equal(t, 2, overdue.Highest())

	oneInstallment := ledger.Participant{ID: 1, PaidAmount: 15000}
	twoInstallments := ledger.Participant{ID: 2, PaidAmount: 20000}
	assert.True(t, ledger.IsDelinquent(oneInstallment, overdue, plan))
	assert.False(t, ledger.IsDelinquent(twoInstallments, overdue, plan))
	assert.Equal(t, 1, ledger.CountDelinquent([]ledger.Participant{oneInstallment, twoInstallments}, overdue, plan))
}

func TestDelinquency_NothingOverdue(t *testing.T) {
	plan := ledger.DefaultPlan()
	assert.False(t, ledger.IsDelinquent(ledger.Participant{}, ledger.OverdueSet{}, plan))
	assert.Equal(t, 0, ledger.OverdueSet{}.Highest())
}

func TestSchedule_CurrentYearAnchor(t *testing.T) {
	// GIVEN: A schedule without a fixed year
	// WHEN: Evaluated in two different years
	// THEN: The anchor follows the evaluated date
	s := ledger.DefaultSchedule()
	assert.Equal(t, ledger.NewDate(2024, time.January, 1), s.AnchorFor(ledger.NewDate(2024, time.June, 3)))
	assert.Equal(t, ledger.NewDate(2031, time.January, 1), s.AnchorFor(ledger.NewDate(2031, time.February, 3)))
}

func TestSchedule_MissingOffsetsContinueMonthly(t *testing.T) {
	s := ledger.Schedule{Year: 2025, StartMonth: time.March, DueOffsets: []int{2}}
	dates := s.DueDates(ledger.NewDate(2025, time.January, 1), ledger.DefaultPlan())
	assert.Equal(t, []time.Time{
		ledger.NewDate(2025, time.May, 1),
		ledger.NewDate(2025, time.June, 1),
		ledger.NewDate(2025, time.July, 1),
	}, dates)
}

func TestSchedule_CrossesYearEnd(t *testing.T) {
	s := ledger.Schedule{Year: 2025, StartMonth: time.November, DueOffsets: []int{1, 2, 3}}
	overdue := s.OverdueInstallments(ledger.NewDate(2026, time.January, 5), ledger.DefaultPlan())
	assert.Equal(t, ledger.OverdueSet{1, 2}, overdue)
}
