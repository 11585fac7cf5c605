/*
scheduler.go - Automated yearly allocation reset

PURPOSE:
  Periodically checks whether the calendar year has rolled over and, when
  it has, applies the configured allocation reset to every user in the
  configured orgs.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Remembers the last year it reset so restarts mid-year are harmless
  - Per-user failures are reported and skipped, the batch continues

CONFIGURATION:
  - Orgs:          Which orgs to reset (default: none, scheduler idle)
  - Allocation:    The new yearly allocation
  - CarryForward:  Whether unused remaining days roll into the new year
  - CheckInterval: How often to check (default: 1 hour)

USAGE:
  scheduler := NewResetScheduler(handler.Resetter, cfg)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ResetAllocations endpoint (manual reset)
  - engine/reset.go: AllocationResetter
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tidehr/leave-engine/engine"
)

// ResetSchedule configures the automated yearly reset.
type ResetSchedule struct {
	Orgs          []engine.OrgID
	Allocation    engine.Days
	CarryForward  bool
	CheckInterval time.Duration
}

// ResetScheduler applies the yearly allocation reset when the year changes.
type ResetScheduler struct {
	Resetter *engine.AllocationResetter
	Config   ResetSchedule

	lastYear int
	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewResetScheduler creates a new scheduler.
func NewResetScheduler(resetter *engine.AllocationResetter, cfg ResetSchedule) *ResetScheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 1 * time.Hour
	}
	return &ResetScheduler{
		Resetter: resetter,
		Config:   cfg,
		lastYear: time.Now().Year(),
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *ResetScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if len(rs.Config.Orgs) == 0 {
		log.Println("[Scheduler] No orgs configured, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.Config.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.Config.CheckInterval)
}

// Stop stops the scheduler.
func (rs *ResetScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *ResetScheduler) run() {
	defer rs.wg.Done()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndReset()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ResetScheduler) checkAndReset() {
	year := time.Now().Year()
	if year == rs.lastYear {
		return
	}

	ctx := context.Background()
	log.Printf("[Scheduler] Year rolled over to %d, resetting allocations", year)

	for _, org := range rs.Config.Orgs {
		report, err := rs.Resetter.ResetAll(ctx, org, rs.Config.Allocation, rs.Config.CarryForward)
		if err != nil {
			log.Printf("[Scheduler] org %s: reset failed: %v", org, err)
			continue
		}
		for _, f := range report.Failures {
			log.Printf("[Scheduler] org %s: user %s skipped: %v", org, f.UserID, f.Err)
		}
		log.Printf("[Scheduler] org %s: reset %d users (%d skipped)", org, len(report.Outcomes), len(report.Failures))
	}

	rs.lastYear = year
}
