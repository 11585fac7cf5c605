/*
Package engine implements the leave accrual and booking-decision core.

PURPOSE:
  This package converts calendar date ranges plus per-user working schedules,
  half-day conventions, and organization holidays into precise fractional day
  counts, aggregates historical requests into a balance, and decides whether
  a new request is auto-rejected, held for review, or accepted.

KEY CONCEPTS IN THIS FILE (types.go):
  - Days: A fractional day count backed by decimal.Decimal
  - Category/LedgerType: Named leave types bound to a ledger behavior
  - CategoryPolicy: The injected category -> ledger-type table
  - LeaveRequest: A user's time-off request with its half-day markers

DESIGN PRINCIPLES:
  1. Purity: Every calculation operates on immutable caller-supplied inputs
  2. Precision: decimal.Decimal for day counts; durations are multiples of 0.5
  3. Recompute-from-source: Balance is never stored, always derived from the
     request set, so cancellations restore capacity by construction
  4. Injection: The category table is a value passed in, never package state

USAGE:
  dur := engine.CalculateDuration(span, schedule, holidays)
  bal := engine.ComputeBalance(schedule, allocation, requests, holidays, cats)
  dec := engine.DecisionEngine{Categories: cats}.Decide(req, dur, bal)

SEE ALSO:
  - calendar.go: Working-day resolution
  - duration.go: Date-range iteration and half-day rules
  - balance.go:  Aggregation of historical requests
  - decision.go: Accept/hold/reject state machine
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAYS - Fractional day count
// =============================================================================

// Days is a leave-day quantity. All engine arithmetic goes through this type
// so that half-day fractions never touch float64.
type Days struct {
	Value decimal.Decimal
}

func DaysOf(value float64) Days     { return Days{Value: decimal.NewFromFloat(value)} }
func DaysFromInt(value int) Days    { return Days{Value: decimal.NewFromInt(int64(value))} }
func ZeroDays() Days                { return Days{Value: decimal.Zero} }

// ParseDays parses a decimal day count, returning zero on malformed input.
func ParseDays(s string) Days {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroDays()
	}
	return Days{Value: d}
}

func (d Days) Add(o Days) Days          { return Days{Value: d.Value.Add(o.Value)} }
func (d Days) Sub(o Days) Days          { return Days{Value: d.Value.Sub(o.Value)} }
func (d Days) IsZero() bool             { return d.Value.IsZero() }
func (d Days) IsNegative() bool         { return d.Value.IsNegative() }
func (d Days) IsPositive() bool         { return d.Value.IsPositive() }
func (d Days) GreaterThan(o Days) bool  { return d.Value.GreaterThan(o.Value) }
func (d Days) LessThan(o Days) bool     { return d.Value.LessThan(o.Value) }
func (d Days) Equal(o Days) bool        { return d.Value.Equal(o.Value) }
func (d Days) String() string           { return d.Value.String() }

// fullDay and halfDay are the only two per-day contributions the duration
// calculator ever produces.
func fullDay() Days { return DaysFromInt(1) }
func halfDay() Days { return DaysOf(0.5) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OrgID string
type UserID string
type RequestID string

// =============================================================================
// CATEGORY - Named leave type bound to a ledger behavior
// =============================================================================

// Category is an organization-defined leave type name ("Holiday", "Sick Leave").
// The engine never hardcodes category names; it only understands the two
// ledger types a category maps to.
type Category string

type LedgerType string

const (
	// Deductable categories consume allocation.
	Deductable LedgerType = "deductable"

	// NonDeductable categories are tracked but never charged against
	// allocation (e.g., jury duty in some organizations).
	NonDeductable LedgerType = "non_deductable"
)

// CategoryPolicy is the externally supplied category -> ledger-type table,
// scoped to one organization. It is passed by value into the aggregator and
// decision engine so tests and multi-tenant callers can substitute their own.
type CategoryPolicy struct {
	ledger map[Category]LedgerType
}

func NewCategoryPolicy(table map[Category]LedgerType) CategoryPolicy {
	ledger := make(map[Category]LedgerType, len(table))
	for c, lt := range table {
		ledger[c] = lt
	}
	return CategoryPolicy{ledger: ledger}
}

// Lookup returns the ledger type for a category.
func (p CategoryPolicy) Lookup(c Category) (LedgerType, bool) {
	lt, ok := p.ledger[c]
	return lt, ok
}

// Validate returns ErrUnknownCategory if the category is not in the table.
// Callers must validate before invoking the decision engine; the engine has
// no defined behavior for unknown categories.
func (p CategoryPolicy) Validate(c Category) error {
	if _, ok := p.ledger[c]; !ok {
		return &UnknownCategoryError{Category: c}
	}
	return nil
}

// IsDeductable reports whether the category counts against allocation.
// Unknown categories report false; aggregation excludes them.
func (p CategoryPolicy) IsDeductable(c Category) bool {
	return p.ledger[c] == Deductable
}

// Categories returns the known category names, unordered.
func (p CategoryPolicy) Categories() []Category {
	out := make([]Category, 0, len(p.ledger))
	for c := range p.ledger {
		out = append(out, c)
	}
	return out
}

func (p CategoryPolicy) Len() int { return len(p.ledger) }

// Table returns a copy of the underlying mapping (for serialization).
func (p CategoryPolicy) Table() map[Category]LedgerType {
	out := make(map[Category]LedgerType, len(p.ledger))
	for c, lt := range p.ledger {
		out[c] = lt
	}
	return out
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// LeaveRequest is a single time-off request. Requests are created with the
// decision engine's status and transition at most once thereafter; they are
// never mutated except by that one transition.
type LeaveRequest struct {
	ID     RequestID
	OrgID  OrgID
	UserID UserID

	Span     DateSpan
	Category Category
	Status   RequestStatus

	// AdminResponse carries the engine's auto-rejection rationale or a
	// reviewer's manual rationale.
	AdminResponse string

	CreatedAt time.Time
	DecidedAt *time.Time
	DecidedBy string
}

// =============================================================================
// HOLIDAY
// =============================================================================

// Holiday is an organization-scoped non-working date. A holiday excludes its
// date from any duration count regardless of half-day markers.
type Holiday struct {
	ID        string
	Date      Date
	Name      string
	Recurring bool // same month/day every year
}

// HolidaySet is the duration calculator's holiday input: date string
// (YYYY-MM-DD) -> holiday name. Assembled by the calendar package.
type HolidaySet map[string]string

func (h HolidaySet) Contains(d Date) bool {
	_, ok := h[d.String()]
	return ok
}

func (h HolidaySet) Add(d Date, name string) {
	h[d.String()] = name
}
