package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidehr/leave-engine/engine"
	"github.com/tidehr/leave-engine/engine/store"
)

// =============================================================================
// PURE CARRY-FORWARD ARITHMETIC
// =============================================================================

func TestResetAllocation_CarryForwardAddsRemaining(t *testing.T) {
	current := balanceOf(20, 12, 3) // remaining 5

	got := engine.ResetAllocation(engine.DaysFromInt(25), true, current)
	assertDays(t, got, 30)
}

func TestResetAllocation_NegativeRemainingClampsToZero(t *testing.T) {
	// GIVEN: More days consumed than allocated (remaining is negative)
	// WHEN: Resetting with carry-forward
	// THEN: The debt does not follow the user into the new year

	current := balanceOf(3, 5, 0) // remaining -2

	got := engine.ResetAllocation(engine.DaysFromInt(25), true, current)
	assertDays(t, got, 25)
}

func TestResetAllocation_NoCarryForwardIgnoresBalance(t *testing.T) {
	current := balanceOf(20, 2, 0) // remaining 18

	got := engine.ResetAllocation(engine.DaysFromInt(25), false, current)
	assertDays(t, got, 25)
}

// =============================================================================
// RESETTER OVER STORES
// =============================================================================

func newResetter(t *testing.T) (*engine.AllocationResetter, *store.TxMemory) {
	t.Helper()
	mem := store.NewTxMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveCategories(ctx, testOrg, testCategories()))
	return &engine.AllocationResetter{Store: mem, Holidays: staticHolidays{}}, mem
}

func seedUser(t *testing.T, mem *store.TxMemory, id engine.UserID, allocation int) {
	t.Helper()
	require.NoError(t, mem.SaveUser(context.Background(), testOrg, engine.UserConfig{
		ID:         id,
		Allocation: engine.DaysFromInt(allocation),
	}))
}

func TestResetUser_CarryForwardUsesComputedBalance(t *testing.T) {
	resetter, mem := newResetter(t)
	ctx := context.Background()

	seedUser(t, mem, "u1", 20)
	require.NoError(t, mem.SaveRequest(ctx, engine.LeaveRequest{
		ID:       "r1",
		OrgID:    testOrg,
		UserID:   "u1",
		Span:     span("2026-07-06", "2026-07-10"),
		Category: "vacation",
		Status:   engine.StatusApproved,
	}))

	outcome, err := resetter.ResetUser(ctx, testOrg, "u1", engine.DaysFromInt(25), true)
	require.NoError(t, err)

	assertDays(t, outcome.Previous, 20)
	assertDays(t, outcome.CarriedForward, 15)
	assertDays(t, outcome.NewAllocation, 40)

	cfg, err := mem.User(ctx, testOrg, "u1")
	require.NoError(t, err)
	assertDays(t, cfg.Allocation, 40)
}

func TestResetUser_UnknownUserFails(t *testing.T) {
	resetter, _ := newResetter(t)

	_, err := resetter.ResetUser(context.Background(), testOrg, "ghost", engine.DaysFromInt(25), false)
	assert.ErrorIs(t, err, engine.ErrUserNotFound)
}

// failingAllocations makes SetAllocation fail for one user.
type failingAllocations struct {
	engine.Store
	failFor engine.UserID
}

var errDiskFull = errors.New("disk full")

func (f failingAllocations) SetAllocation(ctx context.Context, org engine.OrgID, id engine.UserID, allocation engine.Days) error {
	if id == f.failFor {
		return errDiskFull
	}
	return f.Store.SetAllocation(ctx, org, id, allocation)
}

func TestResetAll_ContinuesPastFailures(t *testing.T) {
	// GIVEN: Three users, the middle one's write fails
	// WHEN: Resetting the whole org
	// THEN: The other two are reset and the failure is reported

	_, mem := newResetter(t)
	ctx := context.Background()

	seedUser(t, mem, "alice", 20)
	seedUser(t, mem, "bob", 20)
	seedUser(t, mem, "carol", 20)

	resetter := &engine.AllocationResetter{
		Store:    failingAllocations{Store: mem, failFor: "bob"},
		Holidays: staticHolidays{},
	}

	report, err := resetter.ResetAll(ctx, testOrg, engine.DaysFromInt(25), false)
	require.NoError(t, err)

	assert.Len(t, report.Outcomes, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, engine.UserID("bob"), report.Failures[0].UserID)
	assert.ErrorIs(t, report.Failures[0].Err, errDiskFull)

	aliceCfg, err := mem.User(ctx, testOrg, "alice")
	require.NoError(t, err)
	assertDays(t, aliceCfg.Allocation, 25)

	bobCfg, err := mem.User(ctx, testOrg, "bob")
	require.NoError(t, err)
	assertDays(t, bobCfg.Allocation, 20)
}
