/*
seed.go - Demo data loader for testing and demonstrations

PURPOSE:

	Populates an org with realistic data for demos: users with mixed
	schedules (including half-working days), a category table, recurring
	holidays, and a few decided requests so balances are non-trivial.

HOW SEEDING WORKS:
 1. Save the category table
 2. Create users with their schedules and allocations
 3. Add holiday records (recurring New Year, fixed founding day)
 4. Book a few requests directly through the booking service so the
    stored statuses match what the decision engine would produce

USAGE VIA API:

	POST /api/orgs/acme/seed

NOTE:

	Seeding is additive per org. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler dependencies used here
  - cmd/leaved/main.go: `leaved seed` command
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tidehr/leave-engine/engine"
)

// SeedDemo provisions a demo org through the given handler's dependencies.
func SeedDemo(ctx context.Context, h *Handler, org engine.OrgID) error {
	categories := engine.NewCategoryPolicy(map[engine.Category]engine.LedgerType{
		"vacation":      engine.Deductable,
		"personal":      engine.Deductable,
		"sick":          engine.NonDeductable,
		"parental":      engine.NonDeductable,
		"comp_transfer": engine.NonDeductable,
	})
	if err := h.Store.SaveCategories(ctx, org, categories); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	fullWeek, err := engine.ParseSchedule([]string{"Mon", "Tue", "Wed", "Thu", "Fri"}, nil)
	if err != nil {
		return err
	}
	// Short Fridays for the second user, the half-day clamp shows up in demos.
	shortFriday, err := engine.ParseSchedule([]string{"Mon", "Tue", "Wed", "Thu", "Fri"}, []string{"Fri"})
	if err != nil {
		return err
	}

	users := []engine.UserConfig{
		{ID: "alice", Name: "Alice Nguyen", Email: "alice@example.com", Schedule: fullWeek, Allocation: engine.DaysFromInt(25)},
		{ID: "bob", Name: "Bob Santos", Email: "bob@example.com", Schedule: shortFriday, Allocation: engine.DaysFromInt(20)},
		{ID: "carol", Name: "Carol Weiss", Email: "carol@example.com", Schedule: fullWeek, Allocation: engine.ZeroDays()},
	}
	for _, u := range users {
		if err := h.Store.SaveUser(ctx, org, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	holidays := []engine.Holiday{
		{ID: uuid.NewString(), Date: engine.MustDate("2026-01-01"), Name: "New Year's Day", Recurring: true},
		{ID: uuid.NewString(), Date: engine.MustDate("2026-06-15"), Name: "Founding Day"},
	}
	for _, hd := range holidays {
		if err := h.Store.SaveHoliday(ctx, org, hd); err != nil {
			return fmt.Errorf("seed holiday %s: %w", hd.Name, err)
		}
	}

	// Submit through the booking service so statuses and rationales are real.
	bookings := []struct {
		user     engine.UserID
		span     engine.DateSpan
		category engine.Category
	}{
		{"alice", engine.DateSpan{From: engine.MustDate("2026-07-06"), To: engine.MustDate("2026-07-10")}, "vacation"},
		{"alice", engine.DateSpan{From: engine.MustDate("2026-08-03"), To: engine.MustDate("2026-08-03"), Part: engine.Morning}, "personal"},
		{"bob", engine.DateSpan{From: engine.MustDate("2026-09-07"), To: engine.MustDate("2026-09-11")}, "vacation"},
		{"bob", engine.DateSpan{From: engine.MustDate("2026-03-02"), To: engine.MustDate("2026-03-04")}, "sick"},
		{"carol", engine.DateSpan{From: engine.MustDate("2026-10-05"), To: engine.MustDate("2026-10-06")}, "vacation"},
	}
	for _, b := range bookings {
		if _, _, err := h.Booking.Submit(ctx, org, b.user, b.span, b.category); err != nil {
			return fmt.Errorf("seed booking for %s: %w", b.user, err)
		}
	}
	return nil
}

// SeedOrg loads the demo dataset into the org.
// POST /api/orgs/{orgID}/seed
func (h *Handler) SeedOrg(w http.ResponseWriter, r *http.Request) {
	org := orgID(r)
	if err := SeedDemo(r.Context(), h, org); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed org", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"org": string(org), "status": "seeded"})
}
