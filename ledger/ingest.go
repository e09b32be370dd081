package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// RECORD INGESTION - Raw rows to canonical roster
// =============================================================================

// Ingest maps every raw row to exactly one participant and returns the new
// roster. Ids run 1..N in row order. When the policy asks for it the roster
// is then stably sorted by first name token; ids are not renumbered.
//
// Ingest never fails: a row with no recognizable columns still yields a
// participant with an empty name and a zero amount.
func Ingest(rows []RawRow, policy Policy) *Roster {
	plan := policy.Plan.normalized()
	startMonth := policy.Schedule.StartMonth

	participants := make([]Participant, len(rows))
	for i, row := range rows {
		participants[i] = ingestRow(row, ParticipantID(i+1), plan, startMonth, policy.Ingestion.NameOrder)
	}

	if policy.Ingestion.SortByFirstToken {
		SortByFirstToken(participants)
	}
	return NewRoster(participants)
}

// SortByFirstToken orders participants by the lower-cased first word of the
// full name. Ties keep their relative order.
func SortByFirstToken(participants []Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		return firstToken(participants[i].FullName) < firstToken(participants[j].FullName)
	})
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func ingestRow(row RawRow, id ParticipantID, plan Plan, startMonth time.Month, order NameOrder) Participant {
	cols := resolveColumns(row, plan, startMonth)
	return Participant{
		ID:              id,
		FullName:        rowName(row, cols, order),
		PaidAmount:      rowPaid(row, cols),
		RegisteredCount: rowRegistered(row, cols),
	}
}

// rowName prefers separate first and last name columns, then a full name
// column, then whichever single name column exists.
func rowName(row RawRow, cols columnMap, order NameOrder) string {
	first := cellString(lookup(row, cols.firstName))
	last := cellString(lookup(row, cols.lastName))
	full := cellString(lookup(row, cols.fullName))

	switch {
	case cols.firstName != "" && cols.lastName != "" && (first != "" || last != ""):
		if order == NameLastFirst {
			return joinName(last, first)
		}
		return joinName(first, last)
	case full != "":
		return joinName(full)
	default:
		return joinName(first, last)
	}
}

// rowPaid prefers a non-blank total cell and otherwise sums the installment
// cells, each normalized on its own.
func rowPaid(row RawRow, cols columnMap) Amount {
	if cols.total != "" && cellString(row[cols.total]) != "" {
		return NormalizeAmount(row[cols.total])
	}
	var sum Amount
	for _, header := range cols.installments {
		if header == "" {
			continue
		}
		sum = addAmounts(sum, NormalizeAmount(row[header]))
	}
	return sum
}

func rowRegistered(row RawRow, cols columnMap) int {
	if cols.registered == "" {
		return 0
	}
	return NormalizeCount(row[cols.registered])
}

func lookup(row RawRow, header string) any {
	if header == "" {
		return nil
	}
	return row[header]
}

// cellString renders a raw cell as trimmed text.
func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}

func joinName(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
