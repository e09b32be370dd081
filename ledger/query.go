package ledger

import (
	"strings"
)

// =============================================================================
// QUERY ENGINE - Search and installment filters
// =============================================================================

// InstallmentFilter constrains the fully-paid-count of matching participants.
type InstallmentFilter string

const (
	FilterAll      InstallmentFilter = "all"
	FilterAtLeast1 InstallmentFilter = "at_least_1"
	FilterAtLeast2 InstallmentFilter = "at_least_2"
	FilterAtLeast3 InstallmentFilter = "at_least_3"
)

// ParseFilter maps user input to a filter. Unknown values mean FilterAll.
func ParseFilter(s string) InstallmentFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "at_least_1", ">=1":
		return FilterAtLeast1
	case "2", "at_least_2", ">=2":
		return FilterAtLeast2
	case "3", "at_least_3", ">=3", "all_paid", "complete":
		return FilterAtLeast3
	default:
		return FilterAll
	}
}

// Threshold is the minimum fully-paid-count the filter accepts.
func (f InstallmentFilter) Threshold() int {
	switch f {
	case FilterAtLeast1:
		return 1
	case FilterAtLeast2:
		return 2
	case FilterAtLeast3:
		return 3
	default:
		return 0
	}
}

// Matches reports whether a participant passes the filter.
func (f InstallmentFilter) Matches(p Participant, plan Plan) bool {
	return FullyPaidCount(p.PaidAmount, plan) >= f.Threshold()
}

// MatchesSearch reports whether the lower-cased full name contains the
// lower-cased text, or the participant id equals the trimmed text. Blank
// text matches everyone.
func MatchesSearch(p Participant, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if p.ID.String() == trimmed {
		return true
	}
	return strings.Contains(strings.ToLower(p.FullName), strings.ToLower(text))
}

// Query returns the participants that match both the search text and the
// filter, in roster order. The roster is not modified.
func Query(roster *Roster, text string, filter InstallmentFilter, plan Plan) []Participant {
	out := []Participant{}
	if roster == nil {
		return out
	}
	for _, p := range roster.Participants {
		if MatchesSearch(p, text) && filter.Matches(p, plan) {
			out = append(out, p)
		}
	}
	return out
}
