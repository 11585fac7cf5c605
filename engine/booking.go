/*
booking.go - Request lifecycle orchestration

PURPOSE:
  Wires the pure calculators into the submit/approve/reject/cancel lifecycle
  over the collaborator stores:

  Submit:
    1. Resolve the holiday set for the years the request touches
    2. Load user config, category table, request history
    3. Calculate the span's duration; reject zero-duration spans upstream
       of the decision engine
    4. Aggregate the balance and run the decision engine
    5. Persist the request with the decided status
  Steps 2-5 run inside one store transaction (TxStore.WithTx) so two
  simultaneous submissions cannot both read a stale remaining figure.
  Step 1 runs before it: holiday edits do not participate in that race,
  and the SQLite store serves all queries from one pooled connection.

  Approve/Reject: single Pending -> terminal transition by a reviewer, with
  the reviewer's rationale recorded as the admin response.

  Cancel: status change only. No compensating ledger entry exists because
  aggregation excludes non-Approved statuses by construction; a cancelled
  request restores capacity on the next balance read.

EVENTS:
  After a submit commits, the notification collaborator receives the decision
  outcome and, when the accepted booking leaves the user within the advisory
  threshold, a low-balance event.

SEE ALSO:
  - decision.go: The state machine Submit runs
  - stores.go:   The collaborator interfaces
*/
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Notifier is the outbound event surface toward the notification
// collaborator. Delivery transport is out of scope; implementations log,
// enqueue, or drop.
type Notifier interface {
	// RequestDecided reports a submit outcome (auto-rejection or auto-pending).
	RequestDecided(ctx context.Context, req LeaveRequest, d Decision)

	// LowBalance reports the post-booking advisory threshold being reached.
	LowBalance(ctx context.Context, org OrgID, sig LowBalanceSignal)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) RequestDecided(context.Context, LeaveRequest, Decision) {}
func (NopNotifier) LowBalance(context.Context, OrgID, LowBalanceSignal)    {}

// BookingService runs the request lifecycle.
type BookingService struct {
	Store    TxStore
	Holidays HolidaySource
	Notifier Notifier

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func (s *BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *BookingService) notifier() Notifier {
	if s.Notifier != nil {
		return s.Notifier
	}
	return NopNotifier{}
}

// Submit validates, decides, and persists a new leave request. The returned
// request carries the engine's decided status; the Decision carries the
// rationale and any advisory signal.
func (s *BookingService) Submit(ctx context.Context, org OrgID, user UserID, span DateSpan, category Category) (LeaveRequest, Decision, error) {
	if err := span.Validate(); err != nil {
		return LeaveRequest{}, Decision{}, err
	}

	// Holiday edits are rare and do not participate in the booking race,
	// so the set is resolved before the transaction opens. The SQLite
	// store runs on a single pooled connection; a holiday query issued
	// while the booking transaction holds it would never get one.
	prelim, err := s.Store.Requests(ctx, org, user)
	if err != nil {
		return LeaveRequest{}, Decision{}, err
	}
	holidays, err := s.Holidays.HolidaySet(ctx, org, yearsOf(prelim, &span))
	if err != nil {
		return LeaveRequest{}, Decision{}, fmt.Errorf("resolving holidays: %w", err)
	}

	var (
		req      LeaveRequest
		decision Decision
	)
	err = s.Store.WithTx(ctx, func(st Store) error {
		cfg, err := st.User(ctx, org, user)
		if err != nil {
			return err
		}

		categories, err := st.Categories(ctx, org)
		if err != nil {
			return err
		}
		if err := categories.Validate(category); err != nil {
			return err
		}

		history, err := st.Requests(ctx, org, user)
		if err != nil {
			return err
		}

		requested := CalculateDuration(span, cfg.Schedule, holidays)
		if requested.IsZero() {
			return ErrZeroDuration
		}

		bal := ComputeBalance(cfg.Schedule, cfg.Allocation, history, holidays, categories)

		now := s.now()
		req = LeaveRequest{
			ID:        RequestID(uuid.NewString()),
			OrgID:     org,
			UserID:    user,
			Span:      span,
			Category:  category,
			CreatedAt: now,
		}

		decision = DecisionEngine{Categories: categories}.Decide(req, requested, bal)
		req.Status = decision.Status
		if decision.Status == StatusRejected {
			req.AdminResponse = decision.Rationale
			req.DecidedAt = &now
			req.DecidedBy = "system"
		}

		return st.SaveRequest(ctx, req)
	})
	if err != nil {
		return LeaveRequest{}, Decision{}, err
	}

	s.notifier().RequestDecided(ctx, req, decision)
	if decision.LowBalance != nil {
		s.notifier().LowBalance(ctx, org, *decision.LowBalance)
	}
	return req, decision, nil
}

// Approve moves a pending request to Approved.
func (s *BookingService) Approve(ctx context.Context, org OrgID, id RequestID, reviewer string) error {
	return s.Store.Transition(ctx, org, id, StatusApproved, "", reviewer)
}

// Reject moves a pending request to Rejected with the reviewer's rationale.
func (s *BookingService) Reject(ctx context.Context, org OrgID, id RequestID, reviewer, rationale string) error {
	return s.Store.Transition(ctx, org, id, StatusRejected, rationale, reviewer)
}

// Cancel moves a pending or approved request to Cancelled. Capacity is
// restored implicitly on the next balance read.
func (s *BookingService) Cancel(ctx context.Context, org OrgID, id RequestID, actor string) error {
	return s.Store.Transition(ctx, org, id, StatusCancelled, "", actor)
}

// BalanceFor recomputes a user's balance from their request history.
func (s *BookingService) BalanceFor(ctx context.Context, org OrgID, user UserID) (Balance, error) {
	cfg, err := s.Store.User(ctx, org, user)
	if err != nil {
		return Balance{}, err
	}
	categories, err := s.Store.Categories(ctx, org)
	if err != nil {
		return Balance{}, err
	}
	history, err := s.Store.Requests(ctx, org, user)
	if err != nil {
		return Balance{}, err
	}

	holidays, err := s.Holidays.HolidaySet(ctx, org, yearsOf(history, nil))
	if err != nil {
		return Balance{}, err
	}
	return ComputeBalance(cfg.Schedule, cfg.Allocation, history, holidays, categories), nil
}

// yearsOf collects the distinct years covered by a request history and an
// optional additional span, sorted ascending.
func yearsOf(history []LeaveRequest, span *DateSpan) []int {
	seen := map[int]bool{}
	add := func(sp DateSpan) {
		if sp.Validate() != nil {
			return
		}
		for y := sp.From.Year(); y <= sp.To.Year(); y++ {
			seen[y] = true
		}
	}
	for _, r := range history {
		add(r.Span)
	}
	if span != nil {
		add(*span)
	}
	if len(seen) == 0 {
		seen[Today().Year()] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
