package engine_test

import (
	"testing"

	"github.com/tidehr/leave-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func mustSchedule(t *testing.T, working, half []string) engine.Schedule {
	t.Helper()
	sched, err := engine.ParseSchedule(working, half)
	if err != nil {
		t.Fatalf("schedule parse failed: %v", err)
	}
	return sched
}

func span(from, to string) engine.DateSpan {
	return engine.DateSpan{From: engine.MustDate(from), To: engine.MustDate(to)}
}

func assertDays(t *testing.T, got engine.Days, want float64) {
	t.Helper()
	if !got.Equal(engine.DaysOf(want)) {
		t.Errorf("expected %v days, got %v", want, got)
	}
}

// 2026-07-03 is a Friday, 2026-07-04 a Saturday, 2026-07-06 a Monday.

// =============================================================================
// HALF-WORKING-DAY PRECEDENCE
// =============================================================================

func TestDuration_FullDayMarkerOnHalfWorkingSaturday(t *testing.T) {
	// GIVEN: Mon-Sat schedule where Saturday is a half working day
	// WHEN: A single-day FullDay request lands on a Saturday
	// THEN: Duration is 0.5 - the day itself is only half a working day

	sched := mustSchedule(t,
		[]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, []string{"Sat"})

	got := engine.CalculateDuration(span("2026-07-04", "2026-07-04"), sched, nil)
	assertDays(t, got, 0.5)
}

func TestDuration_MorningMarkerOnHalfWorkingDay_NoFurtherHalving(t *testing.T) {
	// GIVEN: Saturday is already a half working day
	// WHEN: The request additionally carries a Morning marker
	// THEN: Duration stays 0.5, the two half rules never compound to 0.25

	sched := mustSchedule(t,
		[]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, []string{"Sat"})

	s := span("2026-07-04", "2026-07-04")
	s.Part = engine.Morning

	got := engine.CalculateDuration(s, sched, nil)
	assertDays(t, got, 0.5)
}

func TestDuration_FridayToSaturdayRange(t *testing.T) {
	// GIVEN: Mon-Sat schedule with half Saturdays
	// WHEN: Requesting Friday through Saturday, both full days
	// THEN: Total is 1.5 (Friday full + Saturday half)

	sched := mustSchedule(t,
		[]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, []string{"Sat"})

	got := engine.CalculateDuration(span("2026-07-03", "2026-07-04"), sched, nil)
	assertDays(t, got, 1.5)
}

// =============================================================================
// HOLIDAY PRECEDENCE
// =============================================================================

func TestDuration_HolidayContributesZero(t *testing.T) {
	// GIVEN: Default schedule and a holiday on a Monday
	// WHEN: Requesting that single day, even with a half-day marker
	// THEN: Duration is 0 - holidays beat every other rule

	holidays := engine.HolidaySet{}
	holidays.Add(engine.MustDate("2026-07-06"), "Summer Day")

	s := span("2026-07-06", "2026-07-06")
	s.Part = engine.Morning

	got := engine.CalculateDuration(s, engine.Schedule{}, holidays)
	assertDays(t, got, 0)
}

func TestDuration_HolidayInsideRangeIsSkipped(t *testing.T) {
	// GIVEN: A Monday-Friday week with a holiday on Wednesday
	// WHEN: Requesting the whole week
	// THEN: Total is 4

	holidays := engine.HolidaySet{}
	holidays.Add(engine.MustDate("2026-07-08"), "Midweek Holiday")

	got := engine.CalculateDuration(span("2026-07-06", "2026-07-10"), engine.Schedule{}, holidays)
	assertDays(t, got, 4)
}

// =============================================================================
// DEFAULT SCHEDULE AND EDGE MARKERS
// =============================================================================

func TestDuration_DefaultScheduleSkipsWeekend(t *testing.T) {
	// GIVEN: No configured working days (defaults to Mon-Fri)
	// WHEN: Requesting Monday through Sunday
	// THEN: Only the five weekdays count

	got := engine.CalculateDuration(span("2026-07-06", "2026-07-12"), engine.Schedule{}, nil)
	assertDays(t, got, 5)
}

func TestDuration_SingleDayMorning(t *testing.T) {
	s := span("2026-07-06", "2026-07-06")
	s.Part = engine.Afternoon

	got := engine.CalculateDuration(s, engine.Schedule{}, nil)
	assertDays(t, got, 0.5)
}

func TestDuration_EdgeHalfMarkersOnRange(t *testing.T) {
	// GIVEN: A Monday-Friday request starting in the afternoon and ending
	//        at midday
	// WHEN: Calculating the duration
	// THEN: First and last days count half each: 0.5 + 3 + 0.5 = 4

	s := span("2026-07-06", "2026-07-10")
	s.StartPart = engine.Afternoon
	s.EndPart = engine.Morning

	got := engine.CalculateDuration(s, engine.Schedule{}, nil)
	assertDays(t, got, 4)
}

func TestDuration_EdgeMarkerOnNonWorkingEdgeIsIgnored(t *testing.T) {
	// GIVEN: A Saturday-to-Monday request with a StartPart marker
	// WHEN: Saturday is non-working under the default schedule
	// THEN: Only Monday counts, as a full day

	s := span("2026-07-04", "2026-07-06")
	s.StartPart = engine.Afternoon

	got := engine.CalculateDuration(s, engine.Schedule{}, nil)
	assertDays(t, got, 1)
}

// =============================================================================
// DEGENERATE SPANS
// =============================================================================

func TestDuration_WeekendOnlySpanIsZero(t *testing.T) {
	got := engine.CalculateDuration(span("2026-07-04", "2026-07-05"), engine.Schedule{}, nil)
	assertDays(t, got, 0)
}

func TestDuration_InvertedSpanIsZero(t *testing.T) {
	got := engine.CalculateDuration(span("2026-07-10", "2026-07-06"), engine.Schedule{}, nil)
	assertDays(t, got, 0)
}

func TestDuration_ZeroDatesAreZero(t *testing.T) {
	got := engine.CalculateDuration(engine.DateSpan{}, engine.Schedule{}, nil)
	assertDays(t, got, 0)
}

func TestDuration_MonotonicInRangeLength(t *testing.T) {
	// Extending a span's end date never shrinks its duration, holidays
	// and half working days included.
	sched := mustSchedule(t,
		[]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, []string{"Sat"})
	holidays := engine.HolidaySet{}
	holidays.Add(engine.MustDate("2026-07-08"), "Midweek Holiday")

	from := engine.MustDate("2026-07-06")
	prev := engine.ZeroDays()
	for i := 0; i < 21; i++ {
		sp := engine.DateSpan{From: from, To: from.AddDays(i)}
		got := engine.CalculateDuration(sp, sched, holidays)
		if got.LessThan(prev) {
			t.Fatalf("duration shrank when extending to %s: %v < %v", sp.To, got, prev)
		}
		prev = got
	}
}
