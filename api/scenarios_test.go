/*
scenarios_test.go - Tests for demo scenarios and the delinquency monitor

Tests for:
- Scenario listing and loading
- Reset of stored snapshots
- Monitor status after loading a scenario
- Monitor start and stop
*/
package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cuota-ledger/colecta"
	"github.com/warp/cuota-ledger/ledger"
	"github.com/warp/cuota-ledger/ledger/store"
	"github.com/warp/cuota-ledger/store/sqlite"
)

func TestListScenarios(t *testing.T) {
	_, router := newTestHandler(t, store.NewMemory())

	rec := do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ScenarioDTO](t, rec)

	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"proyecto-330", "first-ten", "empty"}, ids)
	assert.Equal(t, colecta.DemoSize, list[0].Size)
}

func TestLoadScenario_FullDemo(t *testing.T) {
	// GIVEN: An empty store
	_, router := newTestHandler(t, store.NewMemory())

	// WHEN: The full demo is loaded
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "proyecto-330"})

	// THEN: 300 participants become the active roster, spread over 6 pages
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[RosterResponse](t, do(t, router, http.MethodGet, "/api/roster", nil))
	assert.Equal(t, colecta.DemoSize, resp.Total)

	report := decode[ledger.Report](t, do(t, router, http.MethodGet, "/api/report", nil))
	assert.Equal(t, 6, report.Pages)

	current := decode[map[string]string](t, do(t, router, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "proyecto-330", current["scenario"])
}

func TestLoadScenario_Deterministic(t *testing.T) {
	_, first := newTestHandler(t, store.NewMemory())
	_, second := newTestHandler(t, store.NewMemory())
	for _, router := range []http.Handler{first, second} {
		require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "proyecto-330"}).Code)
	}

	a := decode[TotalsDTO](t, do(t, first, http.MethodGet, "/api/roster/totals", nil))
	b := decode[TotalsDTO](t, do(t, second, http.MethodGet, "/api/roster/totals", nil))
	assert.Equal(t, a, b)
}

func TestLoadScenario_EmptyRosterStillReports(t *testing.T) {
	_, router := newTestHandler(t, store.NewMemory())
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "empty"}).Code)

	report := decode[ledger.Report](t, do(t, router, http.MethodGet, "/api/report", nil))
	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 0, report.Rows)
}

func TestLoadScenario_Errors(t *testing.T) {
	_, router := newTestHandler(t, store.NewMemory())

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/scenarios/load", "{").Code)
}

func TestResetDatabase(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, router := newTestHandler(t, db)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "first-ten"}).Code)

	rec := do(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/roster", nil).Code)
	snaps := decode[[]ledger.SnapshotInfo](t, do(t, router, http.MethodGet, "/api/roster/snapshots", nil))
	assert.Empty(t, snaps)
}

// =============================================================================
// DELINQUENCY MONITOR
// =============================================================================

func TestMonitor_CountsDelinquents(t *testing.T) {
	// GIVEN: The ten fixed participants, checked in the third month
	h, router := newTestHandler(t, store.NewMemory())
	monitor := NewDelinquencyMonitor(h)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "first-ten"}).Code)

	// WHEN: The status is read (loading a scenario triggers a check)
	status := monitor.Status()

	// THEN: Everyone with fewer than two paid installments is delinquent
	require.NotNil(t, status.CheckedAt)
	assert.Equal(t, []int{1, 2}, status.Overdue)
	assert.Equal(t, 4, status.Delinquent)

	dto := decode[MonitorStatusDTO](t, do(t, router, http.MethodGet, "/api/monitor", nil))
	assert.Equal(t, 4, dto.Delinquent)
}

func TestMonitor_FollowsTheClock(t *testing.T) {
	h, router := newTestHandler(t, store.NewMemory())
	monitor := NewDelinquencyMonitor(h)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "first-ten"}).Code)

	h.Now = func() time.Time { return time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC) }
	monitor.RunNow()
	assert.Empty(t, monitor.Status().Overdue)
	assert.Equal(t, 0, monitor.Status().Delinquent)

	h.Now = func() time.Time { return time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC) }
	monitor.RunNow()
	assert.Equal(t, []int{1, 2, 3}, monitor.Status().Overdue)
	assert.Equal(t, 8, monitor.Status().Delinquent)
}

func TestMonitor_EmptyStore(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemory())
	monitor := NewDelinquencyMonitor(h)
	monitor.RunNow()

	status := monitor.Status()
	require.NotNil(t, status.CheckedAt)
	assert.Equal(t, 0, status.Delinquent)
	assert.Empty(t, status.SnapshotID)
}

func TestMonitor_StartStop(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemory())
	monitor := NewDelinquencyMonitor(h)
	monitor.CheckInterval = 10 * time.Millisecond

	monitor.Start()
	assert.Eventually(t, func() bool { return monitor.Status().CheckedAt != nil }, time.Second, 5*time.Millisecond)
	monitor.Stop()

	// Stopping twice is harmless.
	monitor.Stop()
}

func TestMonitor_Disabled(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemory())
	monitor := NewDelinquencyMonitor(h)
	monitor.Enabled = false

	monitor.Start()
	monitor.Stop()
	assert.Nil(t, monitor.Status().CheckedAt)
}
