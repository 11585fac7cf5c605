/*
balance.go - Balance aggregation from a user's request history

PURPOSE:
  Reduces a user's historical requests into total/used/pending/remaining
  figures. This answers "how much leave does this user have left?"

KEY INSIGHT:
  There is no stored balance. Every evaluation recomputes the figures from
  the source requests, so the ledger can never drift: cancelling or rejecting
  a request restores capacity on the next read with no compensating entry.

COMPONENTS:
  Total:           The user's yearly allocation
  Used:            Sum of durations of Approved + Deductable requests
  PendingReserved: Sum of durations of Pending + Deductable requests,
                   held so concurrent requests cannot overbook before review
  Remaining:       Total - Used - PendingReserved (kept signed for
                   diagnostics; policy treats negative as zero capacity)

EXCLUSIONS:
  Rejected and Cancelled requests contribute nothing. Non-Deductable
  categories contribute nothing regardless of status. Categories absent from
  the policy table contribute nothing (callers validate them upstream).

SEE ALSO:
  - duration.go: The per-request duration this sums
  - decision.go: Consumes the resulting Balance
*/
package engine

// Balance is the computed ledger state for one user. It is a value derived
// on every evaluation, never persisted.
type Balance struct {
	Total           Days
	Used            Days
	PendingReserved Days
	Remaining       Days
}

// ComputeBalance aggregates a user's request history into a Balance.
// The request slice is the user's full history for the allocation period;
// tenant scoping is the storage collaborator's concern.
func ComputeBalance(
	sched Schedule,
	allocation Days,
	requests []LeaveRequest,
	holidays HolidaySet,
	categories CategoryPolicy,
) Balance {
	used := ZeroDays()
	pending := ZeroDays()

	for _, r := range requests {
		if !categories.IsDeductable(r.Category) {
			continue
		}
		switch r.Status {
		case StatusApproved:
			used = used.Add(CalculateDuration(r.Span, sched, holidays))
		case StatusPending:
			pending = pending.Add(CalculateDuration(r.Span, sched, holidays))
		}
	}

	return Balance{
		Total:           allocation,
		Used:            used,
		PendingReserved: pending,
		Remaining:       allocation.Sub(used).Sub(pending),
	}
}
