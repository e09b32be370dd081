/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging through slog
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Request counts and latency by route pattern
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/roster/*         Import, query, totals, snapshots
  /api/roster.xlsx      Workbook export
  /api/participants/*   Payments and installment toggles
  /api/overdue          Overdue installments for a date
  /api/monitor          Last background delinquency check
  /api/report*          Printable report (JSON layout or PDF)
  /api/policy           Active collection policy
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus exposition
  /healthz              Liveness probe

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Roster routes
		r.Route("/roster", func(r chi.Router) {
			r.Get("/", h.ListRoster)
			r.Post("/import", h.ImportRoster)
			r.Get("/totals", h.GetTotals)
			r.Get("/snapshots", h.ListSnapshots)
		})
		r.Get("/roster.xlsx", h.ExportRoster)

		// Participant routes
		r.Route("/participants/{id}", func(r chi.Router) {
			r.Get("/", h.GetParticipant)
			r.Put("/payment", h.RecordPayment)
			r.Get("/payments", h.PaymentHistory)
			r.Post("/installments/{n}/toggle", h.ToggleInstallment)
		})

		// Delinquency routes
		r.Get("/overdue", h.GetOverdue)
		r.Get("/monitor", h.GetMonitorStatus)

		// Report routes
		r.Get("/report", h.GetReport)
		r.Get("/report.pdf", h.GetReportPDF)

		// Policy routes
		r.Get("/policy", h.GetPolicy)
		r.Put("/policy", h.UpdatePolicy)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// requestLogger logs every request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
