package calendar_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidehr/leave-engine/calendar"
	"github.com/tidehr/leave-engine/engine"
	"github.com/tidehr/leave-engine/engine/store"
)

const testOrg = engine.OrgID("acme")

func newCalendar(t *testing.T, holidays ...engine.Holiday) *calendar.Calendar {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	for _, h := range holidays {
		require.NoError(t, mem.SaveHoliday(ctx, testOrg, h))
	}
	return calendar.New(mem)
}

// =============================================================================
// RECURRING EXPANSION
// =============================================================================

func TestHolidaySet_RecurringExpandsAcrossYears(t *testing.T) {
	// GIVEN: A recurring holiday anchored at 2024-12-25
	// WHEN: Resolving 2025 and 2026
	// THEN: Dec 25 appears in both years

	cal := newCalendar(t, engine.Holiday{
		ID:        "h1",
		Date:      engine.MustDate("2024-12-25"),
		Name:      "Christmas Day",
		Recurring: true,
	})

	set, err := cal.HolidaySet(context.Background(), testOrg, []int{2025, 2026})
	require.NoError(t, err)

	assert.True(t, set.Contains(engine.MustDate("2025-12-25")))
	assert.True(t, set.Contains(engine.MustDate("2026-12-25")))
	assert.False(t, set.Contains(engine.MustDate("2024-12-25")), "anchor year was not requested")
}

func TestHolidaySet_UnsortedYearsExpandFully(t *testing.T) {
	// GIVEN: A recurring holiday and years requested out of order
	// WHEN: Resolving the set
	// THEN: The latest year is still expanded

	cal := newCalendar(t, engine.Holiday{
		ID:        "h1",
		Date:      engine.MustDate("2024-12-25"),
		Name:      "Christmas Day",
		Recurring: true,
	})

	set, err := cal.HolidaySet(context.Background(), testOrg, []int{2026, 2025})
	require.NoError(t, err)

	assert.True(t, set.Contains(engine.MustDate("2025-12-25")))
	assert.True(t, set.Contains(engine.MustDate("2026-12-25")))
}

func TestHolidaySet_RecurringDoesNotApplyBeforeAnchor(t *testing.T) {
	cal := newCalendar(t, engine.Holiday{
		ID:        "h1",
		Date:      engine.MustDate("2024-12-25"),
		Name:      "Christmas Day",
		Recurring: true,
	})

	set, err := cal.HolidaySet(context.Background(), testOrg, []int{2023})
	require.NoError(t, err)

	assert.False(t, set.Contains(engine.MustDate("2023-12-25")))
}

func TestHolidaySet_NonRecurringOnlyInOwnYear(t *testing.T) {
	cal := newCalendar(t, engine.Holiday{
		ID:   "h1",
		Date: engine.MustDate("2026-06-15"),
		Name: "Founding Day",
	})

	set, err := cal.HolidaySet(context.Background(), testOrg, []int{2026, 2027})
	require.NoError(t, err)

	assert.True(t, set.Contains(engine.MustDate("2026-06-15")))
	assert.False(t, set.Contains(engine.MustDate("2027-06-15")))
}

func TestHolidaySet_EmptyYearsDefaultsToCurrentYear(t *testing.T) {
	today := engine.Today()
	anchor := engine.NewDate(today.Year()-2, 1, 1)

	cal := newCalendar(t, engine.Holiday{
		ID:        "h1",
		Date:      anchor,
		Name:      "New Year's Day",
		Recurring: true,
	})

	set, err := cal.HolidaySet(context.Background(), testOrg, nil)
	require.NoError(t, err)

	assert.True(t, set.Contains(engine.NewDate(today.Year(), 1, 1)))
}

// =============================================================================
// NATIONAL SEEDING
// =============================================================================

func TestNationalHolidays_USIncludesIndependenceDay(t *testing.T) {
	holidays, err := calendar.NationalHolidays("us", 2026)
	require.NoError(t, err)
	require.NotEmpty(t, holidays)

	// July 4, 2026 is a Saturday; the observed holiday is Friday July 3.
	var found bool
	for _, h := range holidays {
		if h.Date.Equal(engine.MustDate("2026-07-03")) {
			found = true
		}
		assert.NotEmpty(t, h.ID)
		assert.NotEmpty(t, h.Name)
	}
	assert.True(t, found, "expected observed Independence Day on 2026-07-03")
}

func TestNationalHolidays_CountryCodeIsCaseInsensitive(t *testing.T) {
	lower, err := calendar.NationalHolidays("gb", 2026)
	require.NoError(t, err)
	upper, err := calendar.NationalHolidays("GB", 2026)
	require.NoError(t, err)

	assert.Equal(t, len(lower), len(upper))
}

func TestNationalHolidays_UnknownCountryFails(t *testing.T) {
	_, err := calendar.NationalHolidays("atlantis", 2026)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported country")
}
