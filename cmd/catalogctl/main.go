package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	catalogapp "github.com/storefront/catalog/internal/application/catalog"
	"github.com/storefront/catalog/internal/infrastructure/cache"
	"github.com/storefront/catalog/internal/infrastructure/config"
	"github.com/storefront/catalog/internal/infrastructure/logger"
	"github.com/storefront/catalog/internal/infrastructure/persistence"
	"github.com/storefront/catalog/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath  string
		jobsPath    string
		logLevel    string
		autoMigrate bool
		keepGoing   bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: ./config.toml)")
	flag.StringVar(&jobsPath, "jobs", "-", "Path to a JSON job stream, - for stdin")
	flag.StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flag.BoolVar(&autoMigrate, "automigrate", false, "Create the catalog tables before running (sqlite only)")
	flag.BoolVar(&keepGoing, "keep-going", false, "Continue after a failed job")
	flag.Usage = printUsage
	flag.Parse()

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	// results go to stdout, so logs default to stderr
	output := cfg.Log.Output
	if output == "stdout" {
		output = "stderr"
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log, jobsPath, autoMigrate, keepGoing); err != nil {
		log.Error("catalogctl failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, jobsPath string, autoMigrate, keepGoing bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, log, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		// the run context may already be cancelled; flush with a fresh one
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := telemetry.NewDBTracingPlugin(dbTracing(cfg), log).Register(db.DB); err != nil {
		return fmt.Errorf("database tracing: %w", err)
	}

	store := persistence.NewCatalogStore(db.DB)
	if autoMigrate {
		if cfg.Database.Driver != config.DriverSQLite {
			return fmt.Errorf("-automigrate is only supported for sqlite; run 'migrate up' for %s", cfg.Database.Driver)
		}
		if err := store.AutoMigrate(); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Info("Catalog tables ready", zap.String("path", cfg.Database.SQLitePath))
	}

	replay, err := cache.NewIdempotencyStoreFactory(cfg.Jobs, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		return err
	}
	if replay != nil {
		defer replay.Close()
	}

	svc := catalogapp.NewService(store,
		catalogapp.WithLogger(log),
		catalogapp.WithMetrics(providers.Metrics),
		catalogapp.WithMaxConflictRetries(cfg.Catalog.MaxConflictRetries),
		catalogapp.WithMaxHierarchyDepth(cfg.Catalog.MaxHierarchyDepth),
		catalogapp.WithDefaultAllowUnknownKeys(cfg.Catalog.DefaultAllowUnknownKeys),
	)

	var in io.Reader = os.Stdin
	if jobsPath != "-" {
		f, err := os.Open(jobsPath)
		if err != nil {
			return fmt.Errorf("open jobs: %w", err)
		}
		defer f.Close()
		in = f
	}

	log.Info("Running catalog jobs",
		zap.String("driver", cfg.Database.Driver),
		zap.String("jobs", jobsPath),
		zap.Bool("keep_going", keepGoing),
		zap.String("replay_store", cfg.Jobs.ReplayStore),
	)
	r := &runner{
		svc:       svc,
		logger:    log,
		keepGoing: keepGoing,
		replay:    replay,
		replayTTL: cfg.Jobs.ReplayTTL,
	}
	return r.run(ctx, in, os.Stdout)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Catalog job runner

Reads a stream of JSON jobs and applies each through the catalog integrity engine.
One JSON result is written to stdout per job.

Usage:
  catalogctl [flags]

Job format:
  {"op": "create_organization", "request": {"name": "Acme"}}
  {"op": "delete_store", "idempotency_key": "nightly-42", "request": {"id": "<uuid>"}}

A job with an idempotency_key is skipped (and reported as replayed) when a job with
the same key was already applied; see [jobs] replay_store.

Flags:
  -config string        Path to config file (default: ./config.toml)
  -jobs string          Path to the job stream, - for stdin (default: -)
  -log-level string     Override log.level
  -automigrate          Create the catalog tables first (sqlite only)
  -keep-going           Continue after a failed job

Ops:
  create_organization update_organization delete_organization deactivate_organization
  create_store update_store delete_store deactivate_store
  create_category update_category move_category reorder_categories delete_category get_category_tree
  create_item update_item delete_item get_item list_items
  define_attribute update_attribute delete_attribute list_attributes
  create_user`)
}
