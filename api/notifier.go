/*
notifier.go - Logging notifier for booking events

PURPOSE:
  Default engine.Notifier used by the HTTP server. Writes booking verdicts
  and low-balance advisories to the process log. A production deployment
  would swap in email or chat delivery behind the same interface.

SEE ALSO:
  - engine/booking.go: Notifier interface and emission points
*/
package api

import (
	"context"
	"log"

	"github.com/tidehr/leave-engine/engine"
)

// LogNotifier reports booking events via the standard logger.
type LogNotifier struct{}

var _ engine.Notifier = LogNotifier{}

func (LogNotifier) RequestDecided(_ context.Context, req engine.LeaveRequest, d engine.Decision) {
	log.Printf("[Booking] request %s for %s: %s (%s)", req.ID, req.UserID, d.Status, d.Rationale)
}

func (LogNotifier) LowBalance(_ context.Context, org engine.OrgID, sig engine.LowBalanceSignal) {
	log.Printf("[Booking] org %s: user %s is down to %s remaining days", org, sig.UserID, sig.Remaining)
}
