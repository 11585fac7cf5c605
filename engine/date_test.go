package engine_test

import (
	"errors"
	"testing"

	"github.com/tidehr/leave-engine/engine"
)

// =============================================================================
// WEEKDAY PARSING
// =============================================================================

func TestParseWeekday_TokensAndFullNames(t *testing.T) {
	cases := map[string]engine.Weekday{
		"Mon":      engine.Monday,
		"mon":      engine.Monday,
		"Monday":   engine.Monday,
		"SATURDAY": engine.Saturday,
		"Sat":      engine.Saturday,
		"sun":      engine.Sunday,
	}
	for token, want := range cases {
		got, err := engine.ParseWeekday(token)
		if err != nil {
			t.Errorf("ParseWeekday(%q) failed: %v", token, err)
			continue
		}
		if got != want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", token, got, want)
		}
	}
}

func TestParseWeekday_UnknownTokenErrors(t *testing.T) {
	// An unrecognized weekday token is a configuration error, not a silent
	// non-working day.
	for _, token := range []string{"Caturday", "Mo", "", "Satur"} {
		if _, err := engine.ParseWeekday(token); err == nil {
			t.Errorf("ParseWeekday(%q) should fail", token)
		}
	}
}

func TestParseSchedule_RejectsUnknownToken(t *testing.T) {
	if _, err := engine.ParseSchedule([]string{"Mon", "Caturday"}, nil); err == nil {
		t.Error("schedule with unknown token should fail to parse")
	}
	if _, err := engine.ParseSchedule([]string{"Mon"}, []string{"Frideey"}); err == nil {
		t.Error("half-day list with unknown token should fail to parse")
	}
}

func TestWeekdaySet_Membership(t *testing.T) {
	set := engine.NewWeekdaySet(engine.Monday, engine.Wednesday)
	if !set.Has(engine.Monday) || !set.Has(engine.Wednesday) {
		t.Error("expected Monday and Wednesday in set")
	}
	if set.Has(engine.Tuesday) {
		t.Error("Tuesday should not be in set")
	}
	if set.IsEmpty() {
		t.Error("set should not be empty")
	}
	if !(engine.WeekdaySet(0)).IsEmpty() {
		t.Error("zero set should be empty")
	}
}

// =============================================================================
// DAY PARTS
// =============================================================================

func TestParseDayPart(t *testing.T) {
	cases := map[string]engine.DayPart{
		"":          engine.FullDay,
		"full":      engine.FullDay,
		"morning":   engine.Morning,
		"am":        engine.Morning,
		"afternoon": engine.Afternoon,
		"pm":        engine.Afternoon,
	}
	for in, want := range cases {
		got, err := engine.ParseDayPart(in)
		if err != nil {
			t.Errorf("ParseDayPart(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDayPart(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := engine.ParseDayPart("evening"); err == nil {
		t.Error("ParseDayPart(\"evening\") should fail")
	}
}

// =============================================================================
// DATES AND SPANS
// =============================================================================

func TestDate_AddDaysCrossesMonth(t *testing.T) {
	d := engine.MustDate("2026-01-31").AddDays(1)
	if d.String() != "2026-02-01" {
		t.Errorf("expected 2026-02-01, got %s", d)
	}
}

func TestDate_WeekdayMapping(t *testing.T) {
	// 2026-07-04 is a Saturday.
	if wd := engine.MustDate("2026-07-04").Weekday(); wd != engine.Saturday {
		t.Errorf("expected Saturday, got %v", wd)
	}
	if wd := engine.MustDate("2026-07-06").Weekday(); wd != engine.Monday {
		t.Errorf("expected Monday, got %v", wd)
	}
}

func TestDateSpan_ValidateRejectsInvertedAndZero(t *testing.T) {
	inverted := engine.DateSpan{
		From: engine.MustDate("2026-07-10"),
		To:   engine.MustDate("2026-07-06"),
	}
	if err := inverted.Validate(); !errors.Is(err, engine.ErrInvalidSpan) {
		t.Errorf("expected ErrInvalidSpan, got %v", err)
	}

	if err := (engine.DateSpan{}).Validate(); !errors.Is(err, engine.ErrInvalidSpan) {
		t.Errorf("expected ErrInvalidSpan for zero span, got %v", err)
	}
}

func TestDateSpan_Dates(t *testing.T) {
	s := engine.DateSpan{
		From: engine.MustDate("2026-07-06"),
		To:   engine.MustDate("2026-07-08"),
	}
	dates := s.Dates()
	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(dates))
	}
	if dates[0].String() != "2026-07-06" || dates[2].String() != "2026-07-08" {
		t.Errorf("unexpected date range: %v .. %v", dates[0], dates[2])
	}
}
