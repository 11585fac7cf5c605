package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidehr/leave-engine/engine"
	"github.com/tidehr/leave-engine/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// staticHolidays serves a fixed holiday set regardless of years.
type staticHolidays struct {
	set engine.HolidaySet
}

func (s staticHolidays) HolidaySet(context.Context, engine.OrgID, []int) (engine.HolidaySet, error) {
	if s.set == nil {
		return engine.HolidaySet{}, nil
	}
	return s.set, nil
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	decided    []engine.Decision
	lowBalance []engine.LowBalanceSignal
}

func (r *recordingNotifier) RequestDecided(_ context.Context, _ engine.LeaveRequest, d engine.Decision) {
	r.decided = append(r.decided, d)
}

func (r *recordingNotifier) LowBalance(_ context.Context, _ engine.OrgID, sig engine.LowBalanceSignal) {
	r.lowBalance = append(r.lowBalance, sig)
}

const testOrg = engine.OrgID("acme")

func newBookingService(t *testing.T, allocation int) (*engine.BookingService, *store.TxMemory, *recordingNotifier) {
	t.Helper()
	mem := store.NewTxMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveCategories(ctx, testOrg, testCategories()))
	require.NoError(t, mem.SaveUser(ctx, testOrg, engine.UserConfig{
		ID:         "u1",
		Name:       "Test User",
		Allocation: engine.DaysFromInt(allocation),
	}))

	notifier := &recordingNotifier{}
	svc := &engine.BookingService{
		Store:    mem,
		Holidays: staticHolidays{},
		Notifier: notifier,
		Now:      func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	return svc, mem, notifier
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_AcceptedRequestIsPending(t *testing.T) {
	svc, mem, notifier := newBookingService(t, 20)
	ctx := context.Background()

	req, decision, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)

	assert.Equal(t, engine.StatusPending, req.Status)
	assert.Equal(t, engine.StatusPending, decision.Status)
	assert.NotEmpty(t, req.ID)
	assert.Nil(t, req.DecidedAt)

	// Persisted with the decided status.
	stored, err := mem.Request(ctx, testOrg, req.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusPending, stored.Status)

	require.Len(t, notifier.decided, 1)
	assert.Empty(t, notifier.lowBalance)
}

func TestSubmit_InsufficientBalanceIsRejectedAndPersisted(t *testing.T) {
	// GIVEN: A 3-day allocation
	// WHEN: A full week is requested
	// THEN: The request is saved as Rejected with the engine's rationale

	svc, mem, _ := newBookingService(t, 3)
	ctx := context.Background()

	req, decision, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, req.Status)
	assert.Contains(t, decision.Rationale, "only 3 available")
	assert.Equal(t, "system", req.DecidedBy)
	require.NotNil(t, req.DecidedAt)
	assert.Equal(t, decision.Rationale, req.AdminResponse)

	stored, err := mem.Request(ctx, testOrg, req.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusRejected, stored.Status)
}

func TestSubmit_PendingRequestsReserveBalance(t *testing.T) {
	// GIVEN: 8 days allocated and a pending week already submitted
	// WHEN: Another full week is requested
	// THEN: The reservation rejects it even though nothing is approved yet

	svc, _, _ := newBookingService(t, 8)
	ctx := context.Background()

	_, first, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)
	require.Equal(t, engine.StatusPending, first.Status)

	_, second, err := svc.Submit(ctx, testOrg, "u1", span("2026-08-03", "2026-08-09"), "vacation")
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, second.Status)
	assert.Contains(t, second.Rationale, "5 already pending")
}

func TestSubmit_UnknownCategoryFails(t *testing.T) {
	svc, _, _ := newBookingService(t, 20)

	_, _, err := svc.Submit(context.Background(), testOrg, "u1", span("2026-07-06", "2026-07-10"), "sabbatical")
	require.Error(t, err)
	assert.True(t, engine.IsClientError(err))

	var unknown *engine.UnknownCategoryError
	assert.ErrorAs(t, err, &unknown)
}

func TestSubmit_ZeroDurationSpanFails(t *testing.T) {
	// A weekend-only span never reaches the decision engine.
	svc, mem, _ := newBookingService(t, 20)
	ctx := context.Background()

	_, _, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-04", "2026-07-05"), "vacation")
	assert.ErrorIs(t, err, engine.ErrZeroDuration)

	reqs, err := mem.Requests(ctx, testOrg, "u1")
	require.NoError(t, err)
	assert.Empty(t, reqs, "nothing should be persisted for a zero-duration span")
}

func TestSubmit_UnknownUserFails(t *testing.T) {
	svc, _, _ := newBookingService(t, 20)

	_, _, err := svc.Submit(context.Background(), testOrg, "ghost", span("2026-07-06", "2026-07-10"), "vacation")
	assert.ErrorIs(t, err, engine.ErrUserNotFound)
}

func TestSubmit_LowBalanceEventEmitted(t *testing.T) {
	// GIVEN: 6 days allocated
	// WHEN: A 5-day week is accepted, leaving 1 day
	// THEN: The notifier receives the advisory

	svc, _, notifier := newBookingService(t, 6)

	_, decision, err := svc.Submit(context.Background(), testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)
	require.Equal(t, engine.StatusPending, decision.Status)

	require.Len(t, notifier.lowBalance, 1)
	assert.Equal(t, engine.UserID("u1"), notifier.lowBalance[0].UserID)
	assert.True(t, notifier.lowBalance[0].Remaining.Equal(engine.DaysFromInt(1)))
}

// txTracking marks when a store transaction is open so collaborators can
// assert which side of it they were called on.
type txTracking struct {
	*store.TxMemory
	inTx bool
}

func (s *txTracking) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	s.inTx = true
	defer func() { s.inTx = false }()
	return s.TxMemory.WithTx(ctx, fn)
}

// txAwareHolidays flags holiday resolution happening inside a transaction.
// The SQLite store runs on a single pooled connection, so a holiday query
// issued while the booking transaction holds it can never be served.
type txAwareHolidays struct {
	store      *txTracking
	calledInTx *bool
}

func (s txAwareHolidays) HolidaySet(context.Context, engine.OrgID, []int) (engine.HolidaySet, error) {
	if s.store.inTx {
		*s.calledInTx = true
	}
	return engine.HolidaySet{}, nil
}

func TestSubmit_HolidaysResolvedBeforeTransaction(t *testing.T) {
	// GIVEN: A holiday source that shares a connection with the store
	// WHEN: A request is submitted
	// THEN: The holiday set is resolved before the booking transaction
	//       opens, never from inside it

	ctx := context.Background()
	tracked := &txTracking{TxMemory: store.NewTxMemory()}
	require.NoError(t, tracked.SaveCategories(ctx, testOrg, testCategories()))
	require.NoError(t, tracked.SaveUser(ctx, testOrg, engine.UserConfig{
		ID:         "u1",
		Name:       "Test User",
		Allocation: engine.DaysFromInt(20),
	}))

	var calledInTx bool
	svc := &engine.BookingService{
		Store:    tracked,
		Holidays: txAwareHolidays{store: tracked, calledInTx: &calledInTx},
	}

	_, decision, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)
	require.Equal(t, engine.StatusPending, decision.Status)
	assert.False(t, calledInTx, "holiday resolution must not run inside the booking transaction")
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestLifecycle_ApproveThenBalanceMoves(t *testing.T) {
	svc, _, _ := newBookingService(t, 20)
	ctx := context.Background()

	req, _, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)

	bal, err := svc.BalanceFor(ctx, testOrg, "u1")
	require.NoError(t, err)
	assert.True(t, bal.PendingReserved.Equal(engine.DaysFromInt(5)))
	assert.True(t, bal.Used.IsZero())

	require.NoError(t, svc.Approve(ctx, testOrg, req.ID, "manager"))

	bal, err = svc.BalanceFor(ctx, testOrg, "u1")
	require.NoError(t, err)
	assert.True(t, bal.Used.Equal(engine.DaysFromInt(5)))
	assert.True(t, bal.PendingReserved.IsZero())
	assert.True(t, bal.Remaining.Equal(engine.DaysFromInt(15)))
}

func TestLifecycle_DecidedRequestCannotBeRedecided(t *testing.T) {
	svc, _, _ := newBookingService(t, 20)
	ctx := context.Background()

	req, _, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, testOrg, req.ID, "manager", "team offsite that week"))

	err = svc.Approve(ctx, testOrg, req.ID, "manager")
	assert.ErrorIs(t, err, engine.ErrRequestNotPending)
}

func TestLifecycle_CancelApprovedRestoresCapacity(t *testing.T) {
	svc, _, _ := newBookingService(t, 20)
	ctx := context.Background()

	req, _, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, testOrg, req.ID, "manager"))
	require.NoError(t, svc.Cancel(ctx, testOrg, req.ID, "u1"))

	bal, err := svc.BalanceFor(ctx, testOrg, "u1")
	require.NoError(t, err)
	assert.True(t, bal.Used.IsZero())
	assert.True(t, bal.Remaining.Equal(engine.DaysFromInt(20)))
}

func TestLifecycle_CancelRejectedFails(t *testing.T) {
	svc, _, _ := newBookingService(t, 3)
	ctx := context.Background()

	req, decision, err := svc.Submit(ctx, testOrg, "u1", span("2026-07-06", "2026-07-10"), "vacation")
	require.NoError(t, err)
	require.Equal(t, engine.StatusRejected, decision.Status)

	err = svc.Cancel(ctx, testOrg, req.ID, "u1")
	assert.ErrorIs(t, err, engine.ErrRequestNotPending)
}
