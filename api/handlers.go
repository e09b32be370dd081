/*
handlers.go - HTTP API handlers for the collection ledger

PURPOSE:
  Exposes the collection ledger via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the ledger package.

ENDPOINTS:
  Roster:
    POST   /api/roster/import          Upload a workbook (multipart field "file")
    GET    /api/roster                 Filtered roster (?q=&filter=&date=)
    GET    /api/roster/totals          Totals of the complete roster
    GET    /api/roster/snapshots       Stored snapshots, newest first
    GET    /api/roster.xlsx            Filtered roster as a workbook

  Participants:
    GET    /api/participants/{id}                            One row
    PUT    /api/participants/{id}/payment                    Overwrite paid amount
    POST   /api/participants/{id}/installments/{n}/toggle    Toggle installment n (1-based)
    GET    /api/participants/{id}/payments                   Paid amount edits

  Delinquency:
    GET    /api/overdue                Overdue installments (?date=)
    GET    /api/monitor                Last background check

  Report:
    GET    /api/report                 Layout instructions as JSON
    GET    /api/report.pdf             Rendered PDF

  Policy:
    GET    /api/policy                 Active policy
    PUT    /api/policy                 Replace the active policy

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Roster snapshots
  - Policies: Optional persistence of the active policy
  - PolicyFactory: JSON to Policy conversion
  - Metrics: Prometheus collectors
  - Now: Clock used for the overdue set when no ?date= is given

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call ledger logic (query, delinquency, layout)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid amount, installment, policy, date or upload
  - 404: Unknown participant, or no roster loaded yet
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The server is meant to run on the organizer's machine.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/cuota-ledger/colecta"
	"github.com/warp/cuota-ledger/factory"
	"github.com/warp/cuota-ledger/ledger"
	"github.com/warp/cuota-ledger/render"
	"github.com/warp/cuota-ledger/store/sqlite"
	"github.com/warp/cuota-ledger/workbook"
)

// maxUploadBytes bounds the multipart form kept in memory.
const maxUploadBytes = 32 << 20

// ActivePolicyID is the key the active policy is persisted under.
const ActivePolicyID = "active"

// PolicyStore persists the active policy document.
type PolicyStore interface {
	SavePolicy(ctx context.Context, policy sqlite.PolicyRecord) error
	GetPolicy(ctx context.Context, id string) (*sqlite.PolicyRecord, error)
}

// paymentHistory is implemented by stores that audit paid amount edits.
type paymentHistory interface {
	PaymentEvents(ctx context.Context, id ledger.ParticipantID) ([]sqlite.PaymentEvent, error)
}

// resetter is implemented by stores that can drop every snapshot.
type resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         ledger.RosterStore
	Policies      PolicyStore
	PolicyFactory *factory.PolicyFactory
	Metrics       *Metrics
	Monitor       *DelinquencyMonitor
	Now           func() time.Time

	mu              sync.RWMutex
	policy          ledger.Policy
	currentScenario string
}

// NewHandler creates a new handler over store with the given active policy.
func NewHandler(store ledger.RosterStore, policy ledger.Policy) *Handler {
	return &Handler{
		Store:         store,
		PolicyFactory: factory.NewPolicyFactory(),
		Metrics:       NewMetrics(),
		Now:           time.Now,
		policy:        policy,
	}
}

// Policy returns the active policy.
func (h *Handler) Policy() ledger.Policy {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.policy
}

// SetPolicy replaces the active policy.
func (h *Handler) SetPolicy(policy ledger.Policy) {
	h.mu.Lock()
	h.policy = policy
	h.mu.Unlock()
}

// LoadPolicy restores the persisted active policy, if any. It reports
// whether a stored policy was found.
func (h *Handler) LoadPolicy(ctx context.Context) (bool, error) {
	if h.Policies == nil {
		return false, nil
	}
	record, err := h.Policies.GetPolicy(ctx, ActivePolicyID)
	if err != nil || record == nil {
		return false, err
	}
	policy, err := h.PolicyFactory.ParsePolicy(record.ConfigJSON)
	if err != nil {
		return false, fmt.Errorf("stored policy: %w", err)
	}
	h.SetPolicy(*policy)
	return true, nil
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// =============================================================================
// ROSTER VIEW - Shared by roster, export and report endpoints
// =============================================================================

type rosterView struct {
	roster  *ledger.Roster
	policy  ledger.Policy
	today   time.Time
	overdue ledger.OverdueSet
	query   string
	filter  ledger.InstallmentFilter
	rows    []ledger.Participant
}

// view resolves ?q=, ?filter= and ?date= against the active roster. It
// writes the error response itself and returns false on failure.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*rosterView, bool) {
	today, ok := h.today(w, r)
	if !ok {
		return nil, false
	}

	roster, err := h.Store.Latest(r.Context())
	if err != nil {
		handleError(w, err, "Failed to load roster")
		return nil, false
	}

	q := r.URL.Query()
	policy := h.Policy()
	v := &rosterView{
		roster:  roster,
		policy:  policy,
		today:   today,
		overdue: policy.Schedule.OverdueInstallments(today, policy.Plan),
		query:   q.Get("q"),
		filter:  ledger.ParseFilter(q.Get("filter")),
	}
	v.rows = ledger.Query(roster, v.query, v.filter, policy.Plan)
	return v, true
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return ledger.DayOf(h.now()), true
	}
	d, err := ledger.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return d, true
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// ImportRoster reads an uploaded workbook and stores it as the new roster.
// POST /api/roster/import
func (h *Handler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	format, err := workbook.FormatOf(header.Filename)
	if err != nil {
		handleError(w, err, "Unsupported workbook")
		return
	}
	rows, err := workbook.Read(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read workbook", err)
		return
	}

	policy := h.Policy()
	roster := ledger.Ingest(rows, policy)
	roster.Source = header.Filename
	roster.LoadedAt = h.now().UTC()

	if err := h.Store.Save(r.Context(), roster); err != nil {
		handleError(w, err, "Failed to save roster")
		return
	}

	totals := ledger.Aggregate(roster, policy.Plan)
	h.Metrics.Imports.WithLabelValues(string(format)).Inc()
	h.Metrics.ObserveRoster(totals)
	slog.Info("roster imported",
		"snapshot", roster.ID,
		"source", roster.Source,
		"participants", roster.Len(),
		"collected", int64(totals.Collected),
	)

	writeJSON(w, http.StatusCreated, ImportResponse{
		Snapshot: roster.Info(),
		Totals:   toTotalsDTO(totals, policy),
	})
}

// ListRoster returns the filtered roster with the totals of the whole roster.
// GET /api/roster?q=&filter=&date=
func (h *Handler) ListRoster(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	dtos := make([]ParticipantDTO, len(v.rows))
	for i, p := range v.rows {
		dtos[i] = toParticipantDTO(p, v.overdue, v.policy)
	}

	writeJSON(w, http.StatusOK, RosterResponse{
		SnapshotID:   v.roster.ID,
		Query:        v.query,
		Filter:       string(v.filter),
		Date:         v.today.Format(ledger.DateLayout),
		Overdue:      v.overdue,
		Count:        len(dtos),
		Total:        v.roster.Len(),
		Participants: dtos,
		Totals:       toTotalsDTO(ledger.Aggregate(v.roster, v.policy.Plan), v.policy),
	})
}

// GetTotals returns the totals of the complete roster.
// GET /api/roster/totals
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Store.Latest(r.Context())
	if err != nil {
		handleError(w, err, "Failed to load roster")
		return
	}
	policy := h.Policy()
	writeJSON(w, http.StatusOK, toTotalsDTO(ledger.Aggregate(roster, policy.Plan), policy))
}

// ListSnapshots lists stored roster snapshots, newest first.
// GET /api/roster/snapshots
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.Store.Snapshots(r.Context())
	if err != nil {
		handleError(w, err, "Failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// ExportRoster writes the filtered roster as an xlsx workbook.
// GET /api/roster.xlsx?q=&filter=
func (h *Handler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := workbook.Export(&buf, v.rows, v.policy); err != nil {
		handleError(w, err, "Failed to export roster")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="colecta.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// PARTICIPANT HANDLERS
// =============================================================================

// GetParticipant returns one participant of the active roster.
// GET /api/participants/{id}
func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	roster, err := h.Store.Latest(r.Context())
	if err != nil {
		handleError(w, err, "Failed to load roster")
		return
	}
	p, found := roster.Find(id)
	if !found {
		handleError(w, &ledger.ParticipantNotFoundError{ID: id}, "Participant not found")
		return
	}

	policy := h.Policy()
	overdue := policy.Schedule.OverdueInstallments(today, policy.Plan)
	writeJSON(w, http.StatusOK, toParticipantDTO(p, overdue, policy))
}

// RecordPayment overwrites a participant's paid amount.
// PUT /api/participants/{id}/payment
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}

	var req PaymentRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := paymentAmount(req.Amount)
	if err != nil {
		handleError(w, err, "Invalid amount")
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	p, err := h.Store.UpdatePaidAmount(r.Context(), id, func(ledger.Participant) (ledger.Amount, error) {
		return amount, nil
	})
	if err != nil {
		handleError(w, err, "Failed to record payment")
		return
	}
	h.Metrics.Payments.WithLabelValues("set").Inc()
	slog.Info("payment recorded", "participant", int(id), "amount", int64(amount))

	h.writeParticipant(w, r, p, today)
}

// ToggleInstallment pays or unpays installment n (1-based) of a participant.
// POST /api/participants/{id}/installments/{n}/toggle
func (h *Handler) ToggleInstallment(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		handleError(w, fmt.Errorf("%w: %q", ledger.ErrInvalidInstallment, chi.URLParam(r, "n")), "Invalid installment")
		return
	}

	today, ok := h.today(w, r)
	if !ok {
		return
	}

	policy := h.Policy()
	updated, err := h.Store.UpdatePaidAmount(r.Context(), id, colecta.ToggleInstallment(n-1, policy.Plan))
	if err != nil {
		handleError(w, err, "Failed to toggle installment")
		return
	}
	h.Metrics.Payments.WithLabelValues("toggle").Inc()
	slog.Info("installment toggled", "participant", int(id), "installment", n, "amount", int64(updated.PaidAmount))

	h.writeParticipant(w, r, updated, today)
}

// PaymentHistory lists the paid amount edits of a participant.
// GET /api/participants/{id}/payments
func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	history, ok := h.Store.(paymentHistory)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Payment history requires a persistent store", nil)
		return
	}

	events, err := history.PaymentEvents(r.Context(), id)
	if err != nil {
		handleError(w, err, "Failed to load payment history")
		return
	}

	dtos := make([]PaymentEventDTO, len(events))
	for i, e := range events {
		dtos[i] = PaymentEventDTO{PreviousAmount: e.PreviousAmount, Amount: e.Amount, RecordedAt: e.RecordedAt}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// writeParticipant answers a payment edit with the updated participant,
// evaluated on today.
func (h *Handler) writeParticipant(w http.ResponseWriter, r *http.Request, p ledger.Participant, today time.Time) {
	policy := h.Policy()
	if roster, err := h.Store.Latest(r.Context()); err == nil {
		h.Metrics.ObserveRoster(ledger.Aggregate(roster, policy.Plan))
	} else {
		slog.Warn("failed to refresh roster metrics", "error", err)
	}
	overdue := policy.Schedule.OverdueInstallments(today, policy.Plan)
	writeJSON(w, http.StatusOK, toParticipantDTO(p, overdue, policy))
}

// =============================================================================
// DELINQUENCY HANDLERS
// =============================================================================

// GetOverdue returns the installments overdue on ?date= (default today).
// GET /api/overdue?date=
func (h *Handler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	policy := h.Policy()
	overdue := policy.Schedule.OverdueInstallments(today, policy.Plan)
	dto := OverdueDTO{
		Date:    today.Format(ledger.DateLayout),
		Overdue: overdue,
	}
	for _, due := range policy.Schedule.DueDates(today, policy.Plan) {
		dto.DueDates = append(dto.DueDates, due.Format(ledger.DateLayout))
	}

	roster, err := h.Store.Latest(r.Context())
	switch {
	case err == nil:
		dto.Delinquent = ledger.CountDelinquent(roster.Participants, overdue, policy.Plan)
	case !ledger.IsNotFound(err):
		handleError(w, err, "Failed to load roster")
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetMonitorStatus reports the last background delinquency check.
// GET /api/monitor
func (h *Handler) GetMonitorStatus(w http.ResponseWriter, r *http.Request) {
	if h.Monitor == nil {
		writeJSON(w, http.StatusOK, MonitorStatusDTO{Overdue: []int{}})
		return
	}
	writeJSON(w, http.StatusOK, h.Monitor.Status())
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport returns the layout instructions of the filtered roster.
// GET /api/report?q=&filter=&date=
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ledger.Layout(v.rows, v.overdue, v.policy))
}

// GetReportPDF renders the filtered roster as a PDF.
// GET /api/report.pdf?q=&filter=&date=
func (h *Handler) GetReportPDF(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	report := ledger.Layout(v.rows, v.overdue, v.policy)
	totals := ledger.Aggregate(v.roster, v.policy.Plan)

	var buf bytes.Buffer
	err := render.PDF(&buf, report, render.Options{
		Totals:         &totals,
		CurrencySymbol: v.policy.CurrencySymbol,
		Date:           v.today,
		Filter:         render.DescribeQuery(v.query, v.filter),
	})
	if err != nil {
		handleError(w, err, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="colecta.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// GetPolicy returns the active policy.
// GET /api/policy
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy := h.Policy()
	writeJSON(w, http.StatusOK, PolicyDTO{
		PolicyJSON: h.PolicyFactory.ToJSON(&policy),
		Obligation: policy.Plan.Obligation(),
	})
}

// UpdatePolicy replaces the active policy from a JSON document.
// PUT /api/policy
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var pj factory.PolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	policy, err := h.PolicyFactory.FromJSON(pj)
	if err != nil {
		handleError(w, err, "Invalid policy")
		return
	}

	if h.Policies != nil {
		configJSON, err := json.Marshal(h.PolicyFactory.ToJSON(policy))
		if err != nil {
			handleError(w, err, "Failed to encode policy")
			return
		}
		record := sqlite.PolicyRecord{ID: ActivePolicyID, Name: policy.Name, ConfigJSON: string(configJSON)}
		if err := h.Policies.SavePolicy(r.Context(), record); err != nil {
			handleError(w, err, "Failed to save policy")
			return
		}
	}

	h.SetPolicy(*policy)
	slog.Info("policy updated", "policy", policy.ID, "unit", int64(policy.Plan.Unit), "count", policy.Plan.Count)
	if h.Monitor != nil {
		h.Monitor.RunNow()
	}

	h.GetPolicy(w, r)
}

// =============================================================================
// HELPERS
// =============================================================================

func participantID(w http.ResponseWriter, r *http.Request) (ledger.ParticipantID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid participant id", err)
		return 0, false
	}
	return ledger.ParticipantID(n), true
}

// paymentAmount accepts a JSON number or a formatted amount string.
// Negative values and strings without digits are rejected rather than
// read as zero.
func paymentAmount(raw any) (ledger.Amount, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("%w: amount is required", ledger.ErrInvalidAmount)
	case json.Number:
		if f, err := v.Float64(); err == nil && f < 0 {
			return 0, fmt.Errorf("%w: %s is negative", ledger.ErrInvalidAmount, v)
		}
	case string:
		if strings.HasPrefix(strings.TrimSpace(v), "-") {
			return 0, fmt.Errorf("%w: %q is negative", ledger.ErrInvalidAmount, v)
		}
		if !strings.ContainsAny(v, "0123456789") {
			return 0, fmt.Errorf("%w: %q has no digits", ledger.ErrInvalidAmount, v)
		}
	case bool, []any, map[string]any:
		return 0, fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, v)
	}
	return ledger.NormalizeAmount(raw), nil
}

func toParticipantDTO(p ledger.Participant, overdue ledger.OverdueSet, policy ledger.Policy) ParticipantDTO {
	return ParticipantDTO{
		ID:              p.ID,
		FullName:        p.FullName,
		PaidAmount:      p.PaidAmount,
		PaidDisplay:     ledger.FormatAmount(p.PaidAmount, policy.CurrencySymbol),
		RegisteredCount: p.RegisteredCount,
		Fills:           ledger.ProjectInstallments(p.PaidAmount, policy.Plan),
		FullyPaid:       ledger.FullyPaidCount(p.PaidAmount, policy.Plan),
		Delinquent:      ledger.IsDelinquent(p, overdue, policy.Plan),
	}
}

func toTotalsDTO(t ledger.Totals, policy ledger.Policy) TotalsDTO {
	return TotalsDTO{
		Collected:          t.Collected,
		CollectedDisplay:   ledger.FormatAmount(t.Collected, policy.CurrencySymbol),
		Registered:         t.Registered,
		Participants:       t.Participants,
		FullyPaid:          t.FullyPaid,
		Obligation:         t.Obligation,
		Outstanding:        t.Outstanding,
		OutstandingDisplay: ledger.FormatAmount(t.Outstanding, policy.CurrencySymbol),
	}
}

// handleError maps ledger errors to HTTP status codes.
func handleError(w http.ResponseWriter, err error, message string) {
	switch {
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		slog.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
