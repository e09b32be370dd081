/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the collection ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (environment variables as defaults)
  2. Configure structured logging
  3. Initialize SQLite store
  4. Resolve the active policy: -policy file, then the stored policy,
     then the built-in Proyecto 330 preset
  5. Optionally load a demo scenario into an empty store
  6. Start the delinquency monitor
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port            HTTP server port (env PORT, default: 8080)
  -db              SQLite database path (env DB_PATH, default: cuotas.db)
                   Use ":memory:" for in-memory database
  -policy          Policy JSON file (env POLICY_FILE)
  -log-level       debug, info, warn or error (env LOG_LEVEL, default: info)
  -check-interval  Delinquency check interval (env CHECK_INTERVAL, default: 1h)
  -demo            Scenario to load when the store is empty (env DEMO_SCENARIO)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the delinquency monitor
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/cuotas.db"

  # Try it with the demo roster
  ./server -db=":memory:" -demo=proyecto-330

  # Custom collection
  ./server -policy=./colecta-2026.json -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/cuota-ledger/api"
	"github.com/warp/cuota-ledger/colecta"
	"github.com/warp/cuota-ledger/ledger"
	"github.com/warp/cuota-ledger/pkg/logging"
	"github.com/warp/cuota-ledger/store/sqlite"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// Flags
	port := flag.String("port", getEnv("PORT", "8080"), "HTTP server port")
	dbPath := flag.String("db", getEnv("DB_PATH", "cuotas.db"), "SQLite database path")
	policyFile := flag.String("policy", getEnv("POLICY_FILE", ""), "Policy JSON file")
	logLevel := flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level")
	checkInterval := flag.String("check-interval", getEnv("CHECK_INTERVAL", "1h"), "Delinquency check interval")
	demo := flag.String("demo", getEnv("DEMO_SCENARIO", ""), "Scenario to load when the store is empty")
	flag.Parse()

	logging.SetupWithLevel(logging.LevelFromString(*logLevel))

	interval, err := time.ParseDuration(*checkInterval)
	if err != nil || interval <= 0 {
		slog.Error("Invalid check interval", "value", *checkInterval, "error", err)
		os.Exit(1)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", *dbPath)

	ctx := context.Background()

	// Initialize handler
	handler := api.NewHandler(store, ledger.DefaultPolicy())
	handler.Policies = store
	if err := resolvePolicy(ctx, handler, *policyFile); err != nil {
		slog.Error("Failed to load policy", "error", err)
		os.Exit(1)
	}
	policy := handler.Policy()
	slog.Info("Policy active",
		"policy", policy.ID,
		"unit", int64(policy.Plan.Unit),
		"installments", policy.Plan.Count,
		"rows_per_page", policy.Layout.RowsPerPage,
	)

	if *demo != "" {
		if err := seedDemo(ctx, handler, *demo); err != nil {
			slog.Error("Failed to load demo scenario", "scenario", *demo, "error", err)
			os.Exit(1)
		}
	}

	monitor := api.NewDelinquencyMonitor(handler)
	monitor.CheckInterval = interval
	monitor.Start()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Server starting", "url", fmt.Sprintf("http://localhost:%s", *port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server stopped")
}

// resolvePolicy picks the active policy: an explicit file wins over the
// stored policy, which wins over the built-in preset.
func resolvePolicy(ctx context.Context, h *api.Handler, path string) error {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		policy, err := h.PolicyFactory.ParsePolicy(string(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		h.SetPolicy(*policy)
		return nil
	}

	found, err := h.LoadPolicy(ctx)
	if err != nil || found {
		return err
	}

	policy, err := h.PolicyFactory.ParsePolicy(colecta.Proyecto330JSON(0))
	if err != nil {
		return err
	}
	h.SetPolicy(*policy)
	return nil
}

// seedDemo loads scenario only when nothing has been imported yet.
func seedDemo(ctx context.Context, h *api.Handler, scenario string) error {
	_, err := h.Store.Latest(ctx)
	switch {
	case err == nil:
		slog.Info("Roster already loaded, skipping demo", "scenario", scenario)
		return nil
	case !errors.Is(err, ledger.ErrEmptyRoster):
		return err
	}
	_, err = h.LoadScenarioByID(ctx, scenario)
	return err
}
