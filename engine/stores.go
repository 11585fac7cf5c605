/*
stores.go - Collaborator interfaces at the engine boundary

PURPOSE:
  The engine's computations are pure, but the booking service and allocation
  resetter orchestrate them over data held by external collaborators: the
  user directory, the holiday store, the request store, and the per-org
  category table. These interfaces are the engine's entire view of those
  collaborators; persistence mechanics live behind them.

ATOMICITY:
  The balance check and the write of a newly decided request must not be
  separable: two simultaneous bookings reading the same stale remaining
  figure could both be accepted and overdraw the allocation. TxStore.WithTx
  runs the read-decide-write sequence inside one store transaction so the
  storage layer can serialize it.

IMPLEMENTATIONS:
  - store/sqlite:     production store, WithTx backed by SQL transactions
  - engine/store:     in-memory store for tests and development
*/
package engine

import "context"

// UserConfig is the user-directory record the engine reads. The directory
// owns it; the engine never writes anything but the allocation.
type UserConfig struct {
	ID       UserID
	Name     string
	Email    string
	Schedule Schedule

	// Allocation is the yearly assignment of leave days (leaveDaysAssigned).
	Allocation Days
}

// UserDirectory supplies per-user configuration, scoped by organization.
type UserDirectory interface {
	// User returns one user's configuration. ErrUserNotFound if absent.
	User(ctx context.Context, org OrgID, id UserID) (UserConfig, error)

	// Users returns every user in the organization.
	Users(ctx context.Context, org OrgID) ([]UserConfig, error)

	// SaveUser creates or replaces a user record.
	SaveUser(ctx context.Context, org OrgID, cfg UserConfig) error

	// SetAllocation updates only the yearly allocation. Used by resets.
	SetAllocation(ctx context.Context, org OrgID, id UserID, allocation Days) error
}

// HolidayStore supplies the organization's holiday records. The calendar
// package assembles them into the HolidaySet the calculators consume.
type HolidayStore interface {
	Holidays(ctx context.Context, org OrgID) ([]Holiday, error)
	SaveHoliday(ctx context.Context, org OrgID, h Holiday) error
	DeleteHoliday(ctx context.Context, org OrgID, id string) error
}

// RequestStore reads and writes leave requests. Requests are written once at
// creation with the engine's decided status and transition at most once
// thereafter.
type RequestStore interface {
	// Requests returns a user's full request history, oldest first.
	Requests(ctx context.Context, org OrgID, user UserID) ([]LeaveRequest, error)

	// Request returns one request. ErrRequestNotFound if absent.
	Request(ctx context.Context, org OrgID, id RequestID) (LeaveRequest, error)

	// PendingRequests returns every pending request in the organization,
	// oldest first, for the review queue.
	PendingRequests(ctx context.Context, org OrgID) ([]LeaveRequest, error)

	// SaveRequest inserts a new request with its decided status.
	SaveRequest(ctx context.Context, req LeaveRequest) error

	// Transition moves a request to a terminal status exactly once.
	// ErrRequestNotPending if the request already reached one (cancellation
	// of an approved request is the single exception).
	Transition(ctx context.Context, org OrgID, id RequestID, to RequestStatus, adminResponse, decidedBy string) error
}

// CategoryStore supplies the per-organization category -> ledger-type table.
type CategoryStore interface {
	Categories(ctx context.Context, org OrgID) (CategoryPolicy, error)
	SaveCategories(ctx context.Context, org OrgID, p CategoryPolicy) error
}

// HolidaySource resolves the holiday dates relevant to a set of years,
// recurring holidays expanded. Implemented by the calendar package.
type HolidaySource interface {
	HolidaySet(ctx context.Context, org OrgID, years []int) (HolidaySet, error)
}

// Store bundles the collaborator interfaces one booking touches.
type Store interface {
	UserDirectory
	HolidayStore
	RequestStore
	CategoryStore
}

// TxStore is a Store whose operations can be grouped into one transaction.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view of the store. If fn
	// returns an error the transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
