/*
decision.go - Booking decision state machine

PURPOSE:
  Given a new request's duration and the user's current balance, decide
  whether the request is auto-rejected or held for manual review, and produce
  a human-readable rationale for the outcome.

STATE MACHINE:
  Deductable category:
    total == 0                 -> Rejected ("no leave days allocated")
    duration > remaining       -> Rejected (requested vs. available, naming
                                  the already-pending amount)
    otherwise                  -> Pending (awaiting admin decision)
  Non-Deductable category:
    always Pending; no balance check applies. The eventual approve/reject is
    a manual reviewer action, not this engine's.

  "remaining" is computed BEFORE adding the new request, so other pending
  requests already reserve their share.

ADVISORY OUTPUT:
  After acceptance, if the post-booking remaining balance is > 0 and <= 3,
  the decision carries a low-balance signal for the notification collaborator.
  This is advisory, not a state transition.

CALLER CONTRACT:
  Zero-duration requests (spans of only holidays/non-working days) must be
  rejected by the caller before this engine runs; Decide does not special-case
  zero. Unknown categories likewise have no defined behavior here and are
  validated upstream via CategoryPolicy.Validate.
*/
package engine

import "fmt"

// LowBalanceThreshold is the advisory boundary: accepted bookings that leave
// the user with this many days or fewer (but more than zero) raise a
// low-balance event.
var LowBalanceThreshold = DaysFromInt(3)

// Decision is the engine's verdict on a new request.
type Decision struct {
	Status    RequestStatus
	Rationale string

	// LowBalance is set when the accepted booking leaves the user within the
	// advisory threshold. Nil on rejection or when balance is comfortable.
	LowBalance *LowBalanceSignal
}

// LowBalanceSignal is the advisory event payload for the notification
// collaborator.
type LowBalanceSignal struct {
	UserID    UserID
	Remaining Days
}

// DecisionEngine decides new bookings against a balance. The category table
// is injected so organizations vary their category sets independently.
type DecisionEngine struct {
	Categories CategoryPolicy
}

// Decide runs the state machine for a new request whose duration has already
// been calculated. The balance must be the pre-booking balance, pending
// reservations included.
func (e DecisionEngine) Decide(req LeaveRequest, requested Days, bal Balance) Decision {
	if !e.Categories.IsDeductable(req.Category) {
		return Decision{
			Status:    StatusPending,
			Rationale: fmt.Sprintf("%s is not deducted from allocation; awaiting review", req.Category),
		}
	}

	if bal.Total.IsZero() {
		return Decision{
			Status:    StatusRejected,
			Rationale: "no leave days allocated",
		}
	}

	if requested.GreaterThan(bal.Remaining) {
		return Decision{
			Status: StatusRejected,
			Rationale: fmt.Sprintf(
				"requested %s days but only %s available (%s already pending approval)",
				requested, bal.Remaining, bal.PendingReserved,
			),
		}
	}

	d := Decision{
		Status:    StatusPending,
		Rationale: "awaiting review",
	}

	postRemaining := bal.Remaining.Sub(requested)
	if postRemaining.IsPositive() && !postRemaining.GreaterThan(LowBalanceThreshold) {
		d.LowBalance = &LowBalanceSignal{UserID: req.UserID, Remaining: postRemaining}
	}
	return d
}
