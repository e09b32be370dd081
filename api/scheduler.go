/*
scheduler.go - Background delinquency monitor

PURPOSE:
  Periodically recomputes which installments are overdue and how many
  participants of the active roster are delinquent. Delinquency is never
  stored; the monitor only publishes the current count to the metrics and
  logs when the overdue set moves (a due date passed, or a new policy
  changed the calendar).

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each check reads the active roster and the active policy afresh
  - An empty store counts as zero delinquent participants
  - The last result is kept for GET /api/monitor

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the monitor is active (default: true)

USAGE:
  monitor := NewDelinquencyMonitor(handler)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - ledger/delinquency.go: Overdue set and delinquency predicate
  - metrics.go: Gauges updated here
*/
package api

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/warp/cuota-ledger/ledger"
)

// DelinquencyMonitor periodically evaluates delinquency of the active roster.
type DelinquencyMonitor struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	statusMu sync.RWMutex
	status   MonitorStatusDTO
	checked  bool
}

// NewDelinquencyMonitor creates a monitor bound to handler and registers
// itself on it.
func NewDelinquencyMonitor(handler *Handler) *DelinquencyMonitor {
	m := &DelinquencyMonitor{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
		status:        MonitorStatusDTO{Overdue: []int{}},
	}
	handler.Monitor = m
	return m
}

// Start begins the periodic checks.
func (dm *DelinquencyMonitor) Start() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if !dm.Enabled {
		slog.Info("delinquency monitor disabled")
		return
	}
	if dm.ticker != nil {
		return
	}

	dm.ticker = time.NewTicker(dm.CheckInterval)
	dm.wg.Add(1)

	go dm.run()

	slog.Info("delinquency monitor started", "interval", dm.CheckInterval)
}

// Stop stops the monitor and waits for the running check to finish.
func (dm *DelinquencyMonitor) Stop() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.ticker != nil {
		dm.ticker.Stop()
		close(dm.stop)
		dm.wg.Wait()
		dm.ticker = nil
		slog.Info("delinquency monitor stopped")
	}
}

func (dm *DelinquencyMonitor) run() {
	defer dm.wg.Done()

	// Run immediately on start
	dm.check()

	for {
		select {
		case <-dm.ticker.C:
			dm.check()
		case <-dm.stop:
			return
		}
	}
}

// RunNow triggers an immediate check.
func (dm *DelinquencyMonitor) RunNow() {
	dm.check()
}

// Status returns the result of the last check.
func (dm *DelinquencyMonitor) Status() MonitorStatusDTO {
	dm.statusMu.RLock()
	defer dm.statusMu.RUnlock()
	s := dm.status
	s.Overdue = slices.Clone(s.Overdue)
	return s
}

func (dm *DelinquencyMonitor) check() {
	ctx := context.Background()
	h := dm.Handler
	now := h.now()
	policy := h.Policy()
	overdue := policy.Schedule.OverdueInstallments(now, policy.Plan)

	next := MonitorStatusDTO{CheckedAt: &now, Overdue: overdue}

	roster, err := h.Store.Latest(ctx)
	switch {
	case err == nil:
		next.SnapshotID = roster.ID
		next.Delinquent = ledger.CountDelinquent(roster.Participants, overdue, policy.Plan)
		h.Metrics.ObserveRoster(ledger.Aggregate(roster, policy.Plan))
	case ledger.IsNotFound(err):
		// Nothing loaded yet.
	default:
		slog.Error("delinquency check failed", "error", err)
		return
	}

	h.Metrics.Delinquent.Set(float64(next.Delinquent))
	h.Metrics.Overdue.Set(float64(overdue.Highest()))

	dm.statusMu.Lock()
	prev, hadPrev := dm.status, dm.checked
	dm.status, dm.checked = next, true
	dm.statusMu.Unlock()

	if !hadPrev || !slices.Equal(prev.Overdue, next.Overdue) {
		slog.Info("overdue installments changed",
			"overdue", []int(overdue),
			"delinquent", next.Delinquent,
			"date", now.Format(ledger.DateLayout),
		)
		return
	}
	slog.Debug("delinquency checked", "delinquent", next.Delinquent, "snapshot", next.SnapshotID)
}
