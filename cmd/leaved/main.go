/*
main.go - Application entry point

PURPOSE:
  Initializes and runs the leave engine daemon. Handles configuration,
  dependency injection, and graceful shutdown.

COMMANDS:
  leaved serve               Run the HTTP server
  leaved reset-allocations   Apply a yearly allocation reset and exit
  leaved seed                Load demo data into an org and exit

STARTUP SEQUENCE (serve):
  1. Load .env, TOML config, and flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the yearly reset scheduler (if configured)
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  leaved serve --db=./data/leave.db

  # Run with in-memory database on another port
  leaved serve --db=:memory: --port=3000

  # Yearly reset with carry-forward for one org
  leaved reset-allocations --org=acme --allocation=25 --carry-forward

ENVIRONMENT:
  LEAVED_PORT, LEAVED_DB override the config file. A .env file in the
  working directory is loaded first.

SEE ALSO:
  - config.go: TOML configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tidehr/leave-engine/api"
	"github.com/tidehr/leave-engine/engine"
	"github.com/tidehr/leave-engine/store/sqlite"
)

var (
	configPath string
	flagPort   int
	flagDB     string
)

func main() {
	// .env is optional; real env vars still win inside loadConfig.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "leaved",
		Short:        "Multi-tenant leave accrual and booking engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "leaved.toml", "TOML config file")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")

	root.AddCommand(serveCmd(), resetCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore resolves the database path and opens the store.
func openStore() (*sqlite.Store, Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, Config{}, err
	}
	if flagDB != "" {
		cfg.DB = flagDB
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}

	store, err := sqlite.New(cfg.DB)
	if err != nil {
		return nil, Config{}, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, cfg, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			handler := api.NewHandler(store)
			router := api.NewRouter(handler)

			if len(cfg.Reset.Orgs) > 0 {
				schedule, err := resetSchedule(cfg.Reset)
				if err != nil {
					return err
				}
				scheduler := api.NewResetScheduler(handler.Resetter, schedule)
				scheduler.Start()
				defer scheduler.Stop()
			}

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Port),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				log.Printf("Server starting on http://localhost:%d", cfg.Port)
				log.Printf("API available at http://localhost:%d/api", cfg.Port)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Println("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			log.Println("Server stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&flagPort, "port", 0, "HTTP server port (overrides config)")
	return cmd
}

func resetSchedule(rc ResetConfig) (api.ResetSchedule, error) {
	alloc, err := decimal.NewFromString(rc.Allocation)
	if err != nil {
		return api.ResetSchedule{}, fmt.Errorf("invalid [reset] allocation %q: %w", rc.Allocation, err)
	}
	orgs := make([]engine.OrgID, len(rc.Orgs))
	for i, o := range rc.Orgs {
		orgs[i] = engine.OrgID(o)
	}
	return api.ResetSchedule{
		Orgs:          orgs,
		Allocation:    engine.Days{Value: alloc},
		CarryForward:  rc.CarryForward,
		CheckInterval: rc.CheckInterval.Duration,
	}, nil
}

func resetCmd() *cobra.Command {
	var (
		org          string
		user         string
		allocation   string
		carryForward bool
	)
	cmd := &cobra.Command{
		Use:   "reset-allocations",
		Short: "Apply a yearly allocation reset",
		RunE: func(cmd *cobra.Command, args []string) error {
			alloc, err := decimal.NewFromString(allocation)
			if err != nil {
				return fmt.Errorf("invalid --allocation: %w", err)
			}

			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			handler := api.NewHandler(store)
			ctx := cmd.Context()
			days := engine.Days{Value: alloc}

			if user != "" {
				outcome, err := handler.Resetter.ResetUser(ctx, engine.OrgID(org), engine.UserID(user), days, carryForward)
				if err != nil {
					return err
				}
				log.Printf("user %s: %s -> %s (carried %s)",
					outcome.UserID, outcome.Previous, outcome.NewAllocation, outcome.CarriedForward)
				return nil
			}

			report, err := handler.Resetter.ResetAll(ctx, engine.OrgID(org), days, carryForward)
			if err != nil {
				return err
			}
			for _, o := range report.Outcomes {
				log.Printf("user %s: %s -> %s (carried %s)",
					o.UserID, o.Previous, o.NewAllocation, o.CarriedForward)
			}
			for _, f := range report.Failures {
				log.Printf("user %s: skipped: %v", f.UserID, f.Err)
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d users skipped", len(report.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization ID")
	cmd.Flags().StringVar(&user, "user", "", "reset a single user instead of the whole org")
	cmd.Flags().StringVar(&allocation, "allocation", "", "new yearly allocation in days")
	cmd.Flags().BoolVar(&carryForward, "carry-forward", false, "add unused remaining days to the new allocation")
	cmd.MarkFlagRequired("org")
	cmd.MarkFlagRequired("allocation")
	return cmd
}

func seedCmd() *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo data into an org",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			handler := api.NewHandler(store)
			if err := api.SeedDemo(cmd.Context(), handler, engine.OrgID(org)); err != nil {
				return err
			}
			log.Printf("org %s seeded", org)
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "acme", "organization ID")
	return cmd
}
