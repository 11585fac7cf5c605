package calendar

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"

	"github.com/tidehr/leave-engine/engine"
)

// =============================================================================
// NATIONAL HOLIDAY SEEDING
// =============================================================================

var countrySets = map[string][]*cal.Holiday{
	"us": us.Holidays,
	"gb": gb.Holidays,
}

// SupportedCountries lists the country codes NationalHolidays understands.
func SupportedCountries() []string {
	return []string{"gb", "us"}
}

// NationalHolidays returns a country's public holidays for one year as
// holiday records ready to store for an organization. The observed date is
// used: a Christmas falling on a Sunday yields the substitute working-day
// holiday, which is what a leave calendar wants to exclude.
func NationalHolidays(country string, year int) ([]engine.Holiday, error) {
	set, ok := countrySets[strings.ToLower(country)]
	if !ok {
		return nil, fmt.Errorf("unsupported country %q (supported: %s)",
			country, strings.Join(SupportedCountries(), ", "))
	}

	var out []engine.Holiday
	for _, h := range set {
		_, observed := h.Calc(year)
		if observed.IsZero() {
			continue
		}
		out = append(out, engine.Holiday{
			ID:   uuid.NewString(),
			Date: engine.NewDate(observed.Year(), observed.Month(), observed.Day()),
			Name: h.Name,
		})
	}
	return out, nil
}
