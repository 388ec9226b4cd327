package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/premium-engine/api"
	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/factory"
	"github.com/warp/premium-engine/internal/config"
	"github.com/warp/premium-engine/internal/logging"
	"github.com/warp/premium-engine/policy"
	"github.com/warp/premium-engine/store/sqlite"
)

var (
	cfgFile  string
	dbPath   string
	seedFile string
	verbose  bool
	port     int
	cutoff   string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "premium-engine",
	Short: "Insurance premium pricing and policy lifecycle engine",
	Long: `premium-engine prices property insurance policies against a catalog of
risk factors and fees, and runs the policy lifecycle
(draft, active, cancelled, expired).

Examples:
  premium-engine serve --port 8080
  premium-engine expire --cutoff 2026-12-31
  premium-engine quote <policy-id>`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.Database.Path = dbPath
		}
		if cmd.Flags().Changed("seed") {
			cfg.Catalog.SeedFile = seedFile
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		return logging.Initialize(cfg.Logging)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed", "", "catalog YAML loaded at startup (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	serveCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	expireCmd.Flags().StringVar(&cutoff, "cutoff", "", "expire policies ending before this date (default today)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(expireCmd)
	rootCmd.AddCommand(quoteCmd)
}

// =============================================================================
// SETUP
// =============================================================================

// openService opens the store, seeds the catalog and builds the service.
// The caller closes the returned store.
func openService(ctx context.Context) (*policy.Service, *sqlite.Store, error) {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Catalog.SeedFile != "" {
		catalog, err := factory.LoadFile(cfg.Catalog.SeedFile)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		if err := catalog.Apply(ctx, store); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		logging.Logger.Info("catalog loaded",
			zap.String("file", cfg.Catalog.SeedFile),
			zap.Int("risk_factors", len(catalog.RiskFactors)),
			zap.Int("fees", len(catalog.Fees)),
			zap.Int("buildings", len(catalog.Buildings)),
			zap.Int("brokers", len(catalog.Brokers)),
		)
	}

	return policy.NewService(store, store, store, logging.Logger), store, nil
}

// =============================================================================
// SERVE
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}
		logger := logging.Logger

		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		scheduler := api.NewExpirationScheduler(svc, logger)
		scheduler.CheckInterval = cfg.Expiration.Interval
		scheduler.Enabled = cfg.Expiration.Enabled
		scheduler.Start()
		defer scheduler.Stop()

		handler := api.NewHandler(svc, logger)
		server := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErr := make(chan error, 1)
		go func() {
			logger.Info("server starting", zap.Int("port", cfg.Server.Port), zap.String("db", cfg.Database.Path))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-serverErr:
			return fmt.Errorf("server failed: %w", err)
		case <-quit:
		}

		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		logger.Info("server stopped")
		return nil
	},
}

// =============================================================================
// EXPIRE
// =============================================================================

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire active policies whose period has ended",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		day := calendar.DateOf(svc.Now())
		if cutoff != "" {
			if day, err = calendar.ParseDate(cutoff); err != nil {
				return err
			}
		}

		n, err := svc.ExpireDue(cmd.Context(), day)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d policies ending before %s\n", n, day)
		return nil
	},
}

// =============================================================================
// QUOTE
// =============================================================================

var quoteCmd = &cobra.Command{
	Use:   "quote <policy-id>",
	Short: "Price a policy as of today without committing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		q, err := svc.Quote(cmd.Context(), policy.ID(args[0]))
		if err != nil {
			return err
		}

		out := api.NewQuoteDTO(policy.ID(args[0]), q)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}
