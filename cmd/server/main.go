/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the capacity planning server. Handles
  configuration, dependency injection, and graceful shutdown.

COMMANDS:
  serve              Start the HTTP server (default)
  import-holidays    Import public holidays for a country without the
                     server running

STARTUP SEQUENCE (serve):
  1. Load YAML config, apply flag overrides
  2. Build the zap logger at the configured level
  3. Open the SQLite store (migrations run on open)
  4. Wire the engine, holiday client/importer, and API handler
  5. Start the server; SIGINT/SIGTERM drains requests for up to 30s

EXAMPLES:
  # Run with file database
  ./server serve --db=./data/capacity.db

  # Run with in-memory database
  ./server serve --db=":memory:"

  # Import French holidays for two years
  ./server import-holidays --country=FR --years=2026,2027

SEE ALSO:
  - config/config.go: YAML file format
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/capacity-engine/api"
	"github.com/warp/capacity-engine/config"
	"github.com/warp/capacity-engine/engine"
	"github.com/warp/capacity-engine/holidayapi"
	"github.com/warp/capacity-engine/store/sqlite"
)

func main() {
	var (
		configPath string
		addr       string
		dbPath     string
		logLevel   string
	)

	root := &cobra.Command{
		Use:          "capacity-engine",
		Short:        "Capacity planning and allocation engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	loadConfig := func() (config.Config, *zap.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return cfg, nil, err
		}
		if addr != "" {
			cfg.Addr = addr
		}
		if dbPath != "" {
			cfg.Database = dbPath
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		log, err := buildLogger(cfg.LogLevel)
		if err != nil {
			return cfg, nil, err
		}
		return cfg, log, nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cfg, log)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	var (
		country string
		years   []int
	)
	importCmd := &cobra.Command{
		Use:   "import-holidays",
		Short: "Import public holidays for a country",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			return runImport(cmd.Context(), cfg, log, country, years)
		},
	}
	importCmd.Flags().StringVar(&country, "country", "", "ISO 3166-1 alpha-2 country code")
	importCmd.Flags().IntSliceVar(&years, "years", nil, "years to import, e.g. 2026,2027")
	importCmd.MarkFlagRequired("country")
	importCmd.MarkFlagRequired("years")

	root.AddCommand(serve, importCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func runServer(cfg config.Config, log *zap.Logger) error {
	store, err := sqlite.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	eng := engine.New(store, log)
	client := holidayapi.NewClient(log)
	importer := holidayapi.NewImporter(client, store, log)
	handler := api.NewHandler(store, eng, client, importer, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Addr), zap.String("db", cfg.Database))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func runImport(ctx context.Context, cfg config.Config, log *zap.Logger, country string, years []int) error {
	store, err := sqlite.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	client := holidayapi.NewClient(log)
	importer := holidayapi.NewImporter(client, store, log)

	results, err := importer.Import(ctx, country, years)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Printf("%s %d: imported %d, skipped %d\n",
			res.CountryCode, res.Year, res.ImportedCount, res.SkippedCount)
	}
	return nil
}
