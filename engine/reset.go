/*
reset.go - Yearly allocation reset with optional carry-forward

PURPOSE:
  Applies a new yearly allocation to one or all users in an organization.
  With carry-forward, a user's unused remaining balance (clamped at zero so
  nobody is penalized twice for an overdraft) is added on top of the new
  allocation.

BULK SEMANTICS:
  The bulk reset is per-user independent: a failure for one user is recorded
  and the batch continues. The report lists successes and failures side by
  side for the caller to surface.
*/
package engine

import "context"

// ResetAllocation computes the new allocation value for one user.
// With carryForward, negative remaining is clamped to zero.
func ResetAllocation(newAllocation Days, carryForward bool, current Balance) Days {
	if !carryForward {
		return newAllocation
	}
	remaining := current.Remaining
	if remaining.IsNegative() {
		remaining = ZeroDays()
	}
	return newAllocation.Add(remaining)
}

// ResetOutcome records one user's applied reset.
type ResetOutcome struct {
	UserID         UserID
	Previous       Days
	CarriedForward Days
	NewAllocation  Days
}

// ResetFailure records one user's failed reset. The batch continues past it.
type ResetFailure struct {
	UserID UserID
	Err    error
}

// ResetReport is the bulk reset result.
type ResetReport struct {
	Outcomes []ResetOutcome
	Failures []ResetFailure
}

// AllocationResetter applies yearly resets over the collaborator stores.
type AllocationResetter struct {
	Store    Store
	Holidays HolidaySource
}

// ResetUser applies the new allocation to a single user, atomically for
// that user record.
func (r *AllocationResetter) ResetUser(ctx context.Context, org OrgID, user UserID, newAllocation Days, carryForward bool) (ResetOutcome, error) {
	cfg, err := r.Store.User(ctx, org, user)
	if err != nil {
		return ResetOutcome{}, err
	}

	carried := ZeroDays()
	applied := newAllocation
	if carryForward {
		bal, err := r.balanceFor(ctx, org, cfg)
		if err != nil {
			return ResetOutcome{}, err
		}
		applied = ResetAllocation(newAllocation, true, bal)
		carried = applied.Sub(newAllocation)
	}

	if err := r.Store.SetAllocation(ctx, org, user, applied); err != nil {
		return ResetOutcome{}, err
	}

	return ResetOutcome{
		UserID:         user,
		Previous:       cfg.Allocation,
		CarriedForward: carried,
		NewAllocation:  applied,
	}, nil
}

// ResetAll applies the reset to every user in the organization,
// continue-on-error, and reports per-user results.
func (r *AllocationResetter) ResetAll(ctx context.Context, org OrgID, newAllocation Days, carryForward bool) (ResetReport, error) {
	users, err := r.Store.Users(ctx, org)
	if err != nil {
		return ResetReport{}, err
	}

	var report ResetReport
	for _, u := range users {
		outcome, err := r.ResetUser(ctx, org, u.ID, newAllocation, carryForward)
		if err != nil {
			report.Failures = append(report.Failures, ResetFailure{UserID: u.ID, Err: err})
			continue
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func (r *AllocationResetter) balanceFor(ctx context.Context, org OrgID, cfg UserConfig) (Balance, error) {
	categories, err := r.Store.Categories(ctx, org)
	if err != nil {
		return Balance{}, err
	}
	history, err := r.Store.Requests(ctx, org, cfg.ID)
	if err != nil {
		return Balance{}, err
	}
	holidays, err := r.Holidays.HolidaySet(ctx, org, yearsOf(history, nil))
	if err != nil {
		return Balance{}, err
	}
	return ComputeBalance(cfg.Schedule, cfg.Allocation, history, holidays, categories), nil
}
