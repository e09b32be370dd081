/*
scenarios.go - Demo scenarios for trying the ledger without a spreadsheet

PURPOSE:
  Loads generated rosters so the roster view, the toggles and the printed
  report can be exercised before the organizer has a real workbook.

SCENARIOS:
  proyecto-330:
    The full demo collection: 300 participants, the first ten with fixed
    payments and the rest with a seeded random number of installments.

  first-ten:
    Only the ten fixed participants. Small enough to read in one screen.

  empty:
    A roster with no participants. The report still has one page.

LOADING:
  Loading a scenario stores a new snapshot, which becomes the active roster
  like any import. Earlier snapshots stay listed. POST /api/scenarios/reset
  drops every snapshot when the store supports it.

SEE ALSO:
  - colecta/demo.go: Row generator
  - handlers.go: Handler struct
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/warp/cuota-ledger/colecta"
	"github.com/warp/cuota-ledger/ledger"
)

// DemoSeed makes generated scenarios reproducible across restarts.
const DemoSeed = 330

type scenario struct {
	ScenarioDTO
	rows func(plan ledger.Plan) []ledger.RawRow
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "proyecto-330",
			Name:        "Proyecto 330",
			Description: "Full demo collection with a seeded mix of payments",
			Size:        colecta.DemoSize,
		},
		rows: func(plan ledger.Plan) []ledger.RawRow {
			return colecta.DemoRows(colecta.DemoSize, DemoSeed, plan)
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "first-ten",
			Name:        "Primeros diez",
			Description: "The ten participants with fixed payments",
			Size:        10,
		},
		rows: func(plan ledger.Plan) []ledger.RawRow {
			return colecta.DemoRows(10, DemoSeed, plan)
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "empty",
			Name:        "Vacío",
			Description: "No participants",
			Size:        0,
		},
		rows: func(ledger.Plan) []ledger.RawRow { return nil },
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns all available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the last loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]string{"scenario": current})
}

// LoadScenario stores a scenario roster as the active snapshot.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	roster, err := h.LoadScenarioByID(r.Context(), req.ScenarioID)
	if err != nil {
		if _, ok := findScenario(req.ScenarioID); !ok {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"snapshot": roster.Info(),
	})
}

// LoadScenarioByID stores the roster of scenario id as the active snapshot.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) (*ledger.Roster, error) {
	s, ok := findScenario(id)
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", id)
	}

	policy := h.Policy()
	roster := ledger.Ingest(s.rows(policy.Plan), policy)
	roster.Source = "scenario:" + s.ID
	roster.LoadedAt = h.now().UTC()
	if err := h.Store.Save(ctx, roster); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()

	h.Metrics.ObserveRoster(ledger.Aggregate(roster, policy.Plan))
	slog.Info("scenario loaded", "scenario", s.ID, "snapshot", roster.ID, "participants", roster.Len())
	if h.Monitor != nil {
		h.Monitor.RunNow()
	}
	return roster, nil
}

// ResetDatabase drops every stored snapshot.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.Store.(resetter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store does not support reset", nil)
		return
	}
	if err := rs.Reset(r.Context()); err != nil {
		handleError(w, err, "Failed to reset database")
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	h.Metrics.ObserveRoster(ledger.Totals{})
	slog.Info("snapshots reset")

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
