/*
Package calendar assembles the holiday sets the engine consumes.

PURPOSE:
  The engine takes holidays as an opaque date -> name set. This package
  builds that set from an organization's stored holiday records, expanding
  recurring holidays (same month/day every year) across the years a
  calculation touches, and can seed an organization's calendar from a
  national public-holiday list.

RECURRENCE:
  Recurring holidays are expanded with an RRULE (FREQ=YEARLY) anchored at
  the stored date. A holiday stored as 2020-12-25 recurring therefore lands
  on Dec 25 of every requested year; non-recurring holidays only count in
  their own year.

SEE ALSO:
  - engine/stores.go: HolidaySource, the interface this implements
  - national.go:      Seeding from rickar/cal country sets
*/
package calendar

import (
	"context"
	"fmt"
	"slices"

	"github.com/teambition/rrule-go"

	"github.com/tidehr/leave-engine/engine"
)

// Calendar resolves holiday sets for an organization from its holiday store.
type Calendar struct {
	Store engine.HolidayStore
}

func New(store engine.HolidayStore) *Calendar {
	return &Calendar{Store: store}
}

var _ engine.HolidaySource = (*Calendar)(nil)

// HolidaySet builds the holiday lookup for the given years, recurring
// holidays expanded.
func (c *Calendar) HolidaySet(ctx context.Context, org engine.OrgID, years []int) (engine.HolidaySet, error) {
	holidays, err := c.Store.Holidays(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("loading holidays: %w", err)
	}
	if len(years) == 0 {
		years = []int{engine.Today().Year()}
	}

	set := engine.HolidaySet{}
	for _, h := range holidays {
		if !h.Recurring {
			set.Add(h.Date, h.Name)
			continue
		}
		dates, err := expandYearly(h.Date, years)
		if err != nil {
			return nil, fmt.Errorf("expanding recurring holiday %q: %w", h.Name, err)
		}
		for _, d := range dates {
			set.Add(d, h.Name)
		}
	}
	return set, nil
}

// expandYearly returns the holiday's occurrence in each requested year.
// Years before the anchor are skipped: a holiday created in 2024 does not
// retroactively exclude 2023 dates.
func expandYearly(anchor engine.Date, years []int) ([]engine.Date, error) {
	// Callers are not required to pass years sorted.
	last := slices.Max(years)
	if last < anchor.Year() {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.YEARLY,
		Dtstart: anchor.Time(),
		Until:   anchor.AddYears(last - anchor.Year()).Time(),
	})
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}

	var out []engine.Date
	for _, t := range rule.All() {
		if wanted[t.Year()] {
			out = append(out, engine.NewDate(t.Year(), t.Month(), t.Day()))
		}
	}
	return out, nil
}
