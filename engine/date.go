package engine

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// Date is a calendar date with no time-of-day and no timezone semantics.
// Dates are exchanged as YYYY-MM-DD strings and interpreted in local calendar
// terms; the engine performs no timezone conversion.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t.UTC()}, nil
}

// MustDate is ParseDate for fixtures; panics on malformed input.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

// Arithmetic
func (d Date) AddDays(n int) Date  { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddYears(n int) Date { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }
func (d Date) String() string    { return d.t.Format(dateLayout) }

// Weekday returns the closed-enum weekday of the date.
func (d Date) Weekday() Weekday { return fromTimeWeekday(d.t.Weekday()) }

// =============================================================================
// WEEKDAY - Closed enumeration of the seven weekdays
// =============================================================================

// Weekday is a closed enumeration. Schedules are built from parsed weekday
// tokens at the configuration boundary, so an unrecognized token is a parse
// error there rather than a silent non-match inside the resolver.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayTokens = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// String returns the canonical three-letter token.
func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return "???"
	}
	return weekdayTokens[w]
}

func fromTimeWeekday(wd time.Weekday) Weekday {
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(int(wd) - 1)
}

// ParseWeekday accepts canonical three-letter tokens and full English names,
// case-insensitively. Anything else is an error.
func ParseWeekday(token string) (Weekday, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	for i := range weekdayTokens {
		if t == strings.ToLower(weekdayTokens[i]) || t == strings.ToLower(weekdayNames[i]) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday token %q", token)
}

// =============================================================================
// WEEKDAY SET
// =============================================================================

// WeekdaySet is a set of weekdays. The zero value is the empty set.
type WeekdaySet uint8

func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// ParseWeekdaySet parses a list of weekday tokens. Unknown tokens fail the
// whole parse.
func ParseWeekdaySet(tokens []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, tok := range tokens {
		d, err := ParseWeekday(tok)
		if err != nil {
			return 0, err
		}
		s |= 1 << uint(d)
	}
	return s, nil
}

func (s WeekdaySet) Has(d Weekday) bool { return s&(1<<uint(d)) != 0 }
func (s WeekdaySet) IsEmpty() bool      { return s == 0 }

// Weekdays returns the members in Monday-first order.
func (s WeekdaySet) Weekdays() []Weekday {
	var out []Weekday
	for d := Monday; d <= Sunday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Tokens returns the members as canonical tokens, for serialization.
func (s WeekdaySet) Tokens() []string {
	var out []string
	for _, d := range s.Weekdays() {
		out = append(out, d.String())
	}
	return out
}

// =============================================================================
// DAY PART - Half-day markers
// =============================================================================

type DayPart string

const (
	FullDay   DayPart = "full"
	Morning   DayPart = "morning"
	Afternoon DayPart = "afternoon"
)

// ParseDayPart parses a half-day marker. The empty string means FullDay.
func ParseDayPart(s string) (DayPart, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full", "full_day", "fullday":
		return FullDay, nil
	case "morning", "am":
		return Morning, nil
	case "afternoon", "pm":
		return Afternoon, nil
	}
	return "", fmt.Errorf("unknown day part %q", s)
}

// IsHalf reports whether the marker shortens the day to a half day.
func (p DayPart) IsHalf() bool { return p == Morning || p == Afternoon }

// =============================================================================
// DATE SPAN - Inclusive date range with half-day boundary markers
// =============================================================================

// DateSpan is the requested range of a leave request. For a single-day span
// (From == To) only Part applies; for a multi-day span StartPart and EndPart
// apply to the first and last day respectively and interior days are always
// full days.
type DateSpan struct {
	From Date
	To   Date

	// Single-day marker. Ignored when From != To.
	Part DayPart

	// Multi-day boundary markers. Ignored when From == To.
	StartPart DayPart
	EndPart   DayPart
}

func (s DateSpan) IsSingleDay() bool { return s.From.Equal(s.To) }

// Validate reports whether the span is well-formed. Zero dates and inverted
// ranges are invalid; the duration calculator treats an invalid span as
// "nothing to charge" and callers reject it before booking.
func (s DateSpan) Validate() error {
	if s.From.IsZero() || s.To.IsZero() {
		return ErrInvalidSpan
	}
	if s.To.Before(s.From) {
		return ErrInvalidSpan
	}
	return nil
}

// Dates returns every date in the span, inclusive.
func (s DateSpan) Dates() []Date {
	if s.Validate() != nil {
		return nil
	}
	var out []Date
	for d := s.From; d.BeforeOrEqual(s.To); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (s DateSpan) String() string {
	if s.IsSingleDay() {
		return s.From.String()
	}
	return s.From.String() + ".." + s.To.String()
}
