package ledger

import (
	"sort"
	"time"
)

// =============================================================================
// SCHEDULE - When each installment falls overdue
// =============================================================================

// Schedule anchors the installments to the calendar.
//
// Installment k (1-based) becomes overdue at the start of the day
// Anchor + DueOffsets[k-1] months. With the defaults (January anchor,
// offsets 1, 2, 3) the first installment is overdue from February 1,
// the second from March 1 and the third from April 1.
type Schedule struct {
	// Year of the collection. Zero means the year of the evaluated date.
	Year int

	// StartMonth is the month the first installment is due in.
	StartMonth time.Month

	// DueOffsets holds, per installment, the months after the anchor at
	// which it becomes overdue. Missing entries continue one month apart.
	DueOffsets []int
}

// DefaultSchedule anchors the collection on January of the current year.
func DefaultSchedule() Schedule {
	return Schedule{StartMonth: time.January, DueOffsets: []int{1, 2, 3}}
}

// AnchorFor returns the first day of the collection as seen from today.
func (s Schedule) AnchorFor(today time.Time) time.Time {
	year := s.Year
	if year == 0 {
		year = today.Year()
	}
	month := s.StartMonth
	if month < time.January || month > time.December {
		month = time.January
	}
	return StartOfMonth(year, month)
}

// offset returns the overdue offset of installment k (1-based).
func (s Schedule) offset(k int) int {
	if k <= len(s.DueOffsets) {
		return s.DueOffsets[k-1]
	}
	if len(s.DueOffsets) == 0 {
		return k
	}
	last := s.DueOffsets[len(s.DueOffsets)-1]
	return last + (k - len(s.DueOffsets))
}

// DueDates returns, per installment, the first day it counts as overdue.
func (s Schedule) DueDates(today time.Time, plan Plan) []time.Time {
	plan = plan.normalized()
	anchor := s.AnchorFor(today)
	dates := make([]time.Time, plan.Count)
	for i := range dates {
		dates[i] = anchor.AddDate(0, s.offset(i+1), 0)
	}
	return dates
}

// =============================================================================
// OVERDUE SET
// =============================================================================

// OverdueSet is the ascending list of overdue installment numbers (1-based).
type OverdueSet []int

// Contains reports whether installment k is overdue.
func (o OverdueSet) Contains(k int) bool {
	i := sort.SearchInts(o, k)
	return i < len(o) && o[i] == k
}

// Highest returns the latest overdue installment, or 0 if none is overdue.
func (o OverdueSet) Highest() int {
	if len(o) == 0 {
		return 0
	}
	return o[len(o)-1]
}

// OverdueInstallments returns the installments whose due date is on or before today.
func (s Schedule) OverdueInstallments(today time.Time, plan Plan) OverdueSet {
	today = DayOf(today)
	overdue := OverdueSet{}
	for i, due := range s.DueDates(today, plan) {
		if !today.Before(due) {
			overdue = append(overdue, i+1)
		}
	}
	sort.Ints(overdue)
	return overdue
}

// =============================================================================
// DELINQUENCY
// =============================================================================

// IsDelinquent reports whether the participant has not fully paid some
// installment that is already overdue. It is recomputed on every call.
func IsDelinquent(p Participant, overdue OverdueSet, plan Plan) bool {
	paid := FullyPaidCount(p.PaidAmount, plan)
	for _, k := range overdue {
		if paid < k {
			return true
		}
	}
	return false
}

// CountDelinquent counts delinquent participants in the roster.
func CountDelinquent(participants []Participant, overdue OverdueSet, plan Plan) int {
	n := 0
	for _, p := range participants {
		if IsDelinquent(p, overdue, plan) {
			n++
		}
	}
	return n
}
