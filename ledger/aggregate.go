package ledger

// =============================================================================
// AGGREGATOR - Roster-wide totals
// =============================================================================

// Totals summarizes a complete roster.
type Totals struct {
	Collected    Amount
	Registered   int
	Participants int
	FullyPaid    int
	Obligation   Amount
	Outstanding  Amount
}

// Aggregate sums the whole roster. It is always given the complete roster,
// never a filtered view, so the totals do not move with the active search.
func Aggregate(roster *Roster, plan Plan) Totals {
	plan = plan.normalized()
	var t Totals
	if roster == nil {
		return t
	}
	for _, p := range roster.Participants {
		t.Collected = addAmounts(t.Collected, p.PaidAmount)
		t.Registered += p.RegisteredCount
		if FullyPaidCount(p.PaidAmount, plan) == plan.Count {
			t.FullyPaid++
		}
	}
	t.Participants = len(roster.Participants)
	t.Obligation = mulAmount(plan.Obligation(), t.Participants)
	if t.Obligation > t.Collected {
		t.Outstanding = t.Obligation - t.Collected
	}
	return t
}
