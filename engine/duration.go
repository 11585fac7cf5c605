/*
duration.go - Fractional leave-day counting over a date span

PURPOSE:
  Converts a date span plus a user's schedule and the organization's holiday
  set into the precise number of leave days the span is worth. This is the
  calculation everything else (balance, decisions) is built on.

RULES, IN PRECEDENCE ORDER (per day):
  1. Non-working day per the schedule      -> contributes 0
  2. Holiday                               -> contributes 0, even on a day
     carrying a half-day marker
  3. Half-working day (e.g., half Saturday)-> contributes 0.5
  4. Half-day marker (single-day Morning/
     Afternoon, or a boundary marker on a
     multi-day span's first/last day)      -> contributes 0.5
  5. Otherwise                             -> contributes 1.0

  Rules 3 and 4 both clamp the day at 0.5. A Morning request on a day that is
  already a half working day stays 0.5, never 0.25.

EDGE CASES:
  - From == To: single-day logic governs exclusively; the multi-day boundary
    branch is unreachable by construction.
  - A span yielding no countable days (a lone weekend day, a holiday week)
    returns 0. That is a valid result, not an error.
  - An invalid span (zero dates, To before From) returns 0: "nothing to
    charge". Callers reject such bookings before they reach the engine.

SEE ALSO:
  - calendar.go: IsWorkingDay / IsHalfWorkingDay
  - balance.go:  Sums this over a user's request history
*/
package engine

// CalculateDuration returns the fractional leave-day total for a span.
// The result is non-negative and always a multiple of 0.5.
func CalculateDuration(span DateSpan, sched Schedule, holidays HolidaySet) Days {
	total := ZeroDays()
	if span.Validate() != nil {
		return total
	}

	single := span.IsSingleDay()
	for d := span.From; d.BeforeOrEqual(span.To); d = d.AddDays(1) {
		if !sched.IsWorkingDay(d) {
			continue
		}
		if holidays.Contains(d) {
			// Holiday precedence is absolute: the day is excluded even
			// when it carries a half-day marker.
			continue
		}

		contribution := fullDay()
		switch {
		case sched.IsHalfWorkingDay(d):
			contribution = halfDay()
		case single && span.Part.IsHalf():
			contribution = halfDay()
		case !single && d.Equal(span.From) && span.StartPart.IsHalf():
			contribution = halfDay()
		case !single && d.Equal(span.To) && span.EndPart.IsHalf():
			contribution = halfDay()
		}
		total = total.Add(contribution)
	}
	return total
}
