package engine

// =============================================================================
// SCHEDULE - Per-user working calendar
// =============================================================================

// Schedule is a user's individual working pattern as supplied by the user
// directory. The zero value (no working days configured) means the default
// Monday-Friday week. Half lists the working days the user works only a half
// day; it is meaningful only for days also present in Working.
type Schedule struct {
	Working WeekdaySet
	Half    WeekdaySet
}

// DefaultWorkingDays is the fallback when a user has no configured schedule.
var DefaultWorkingDays = NewWeekdaySet(Monday, Tuesday, Wednesday, Thursday, Friday)

// IsWorkingDay classifies a single calendar date as working or non-working
// for this schedule. It never errors: malformed dates are the caller's
// responsibility, this only classifies.
func (s Schedule) IsWorkingDay(d Date) bool {
	wd := d.Weekday()
	if s.Working.IsEmpty() {
		return DefaultWorkingDays.Has(wd)
	}
	return s.Working.Has(wd)
}

// IsHalfWorkingDay reports whether the date is a working day the user works
// only half of. A half marker on a non-working day is meaningless and
// reports false.
func (s Schedule) IsHalfWorkingDay(d Date) bool {
	return s.IsWorkingDay(d) && s.Half.Has(d.Weekday())
}

// ParseSchedule builds a schedule from weekday token lists. An unknown token
// in either list fails the parse; the silent string-mismatch failure mode is
// confined to this boundary.
func ParseSchedule(workingDays, halfWorkingDays []string) (Schedule, error) {
	working, err := ParseWeekdaySet(workingDays)
	if err != nil {
		return Schedule{}, err
	}
	half, err := ParseWeekdaySet(halfWorkingDays)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Working: working, Half: half}, nil
}
