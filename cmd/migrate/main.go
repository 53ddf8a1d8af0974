package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	appbilling "github.com/medcare/backend/internal/application/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/medcare/backend/internal/infrastructure/config"
	"github.com/medcare/backend/internal/infrastructure/logger"
	"github.com/medcare/backend/internal/infrastructure/migration"
	"github.com/medcare/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// env carries what every command may need. The migrator is only set for
// commands declared with needsDB.
type env struct {
	cfg  *config.Config
	log  *zap.Logger
	path string
	args []string
	m    *migration.Migrator
}

type command struct {
	needsDB bool
	run     func(e *env) error
}

var commands = map[string]command{
	"up":        {needsDB: true, run: func(e *env) error { return e.m.Up() }},
	"down":      {needsDB: true, run: func(e *env) error { return e.m.Down() }},
	"steps":     {needsDB: true, run: runSteps},
	"version":   {needsDB: true, run: runVersion},
	"force":     {needsDB: true, run: runForce},
	"setup":     {needsDB: true, run: runSetup},
	"create":    {run: runCreate},
	"list":      {run: runList},
	"bootstrap": {run: func(e *env) error { return bootstrapCatalog(e.cfg, e.log) }},
}

var errUsage = errors.New("invalid arguments")

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	path, err := resolveMigrationsPath(migrationsPath)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}
	log.Info("Migration CLI started",
		zap.String("command", args[0]),
		zap.String("migrations_path", path),
	)

	e := &env{cfg: cfg, log: log, path: path, args: args[1:]}
	if cmd.needsDB {
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			log.Fatal("Failed to ping database", zap.Error(err))
		}
		if e.m, err = migration.New(db, path, log); err != nil {
			_ = db.Close()
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		// Closing the migrator closes db too.
		defer e.m.Close()
	}

	if err := cmd.run(e); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
		}
		log.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}
}

// resolveMigrationsPath returns an absolute migrations directory. Without
// an explicit flag it looks in the working directory, then two levels above
// the executable.
func resolveMigrationsPath(flagValue string) (string, error) {
	path := flagValue
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	return filepath.Abs(path)
}

func intArg(e *env, what string) (int, error) {
	if len(e.args) < 1 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(e.args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", errUsage, what, e.args[0])
	}
	return n, nil
}

func runSteps(e *env) error {
	n, err := intArg(e, "step count")
	if err != nil {
		return err
	}
	return e.m.Steps(n)
}

func runForce(e *env) error {
	v, err := intArg(e, "version")
	if err != nil {
		return err
	}
	e.log.Warn("Forcing migration version", zap.Int("version", v))
	return e.m.Force(v)
}

func runVersion(e *env) error {
	version, dirty, err := e.m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		e.log.Info("No migrations applied")
		return nil
	}
	e.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// runSetup brings a fresh database to a serving state: schema first, then
// the default plan catalog.
func runSetup(e *env) error {
	if err := e.m.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return bootstrapCatalog(e.cfg, e.log)
}

func runCreate(e *env) error {
	if len(e.args) < 1 {
		return fmt.Errorf("%w: migration name required", errUsage)
	}
	description := ""
	if len(e.args) > 1 {
		description = e.args[1]
	}
	mf, err := migration.CreateMigration(e.path, e.args[0], description)
	if err != nil {
		return err
	}
	e.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func runList(e *env) error {
	names, err := migration.ListMigrations(e.path)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		e.log.Info("No migrations found")
		return nil
	}
	e.log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

// bootstrapCatalog creates the default plans and their monthly prices.
// Existing rows are left untouched.
func bootstrapCatalog(cfg *config.Config, log *zap.Logger) error {
	currency, err := valueobject.ParseCurrency(cfg.Entitlement.DefaultCurrency)
	if err != nil {
		return err
	}
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		return err
	}
	defer db.Close()

	svc := appbilling.NewPlanCatalogService(
		persistence.NewGormPlanCatalogRepository(db.DB),
		persistence.NewGormSubscriptionRepository(db.DB),
		nil,
		log,
		appbilling.PlanCatalogServiceConfig{DefaultCurrency: currency},
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	res, err := svc.Bootstrap(ctx)
	if err != nil {
		return err
	}
	log.Info("Plan catalog bootstrapped",
		zap.Int64("plans_created", res.PlansCreated),
		zap.Int64("prices_created", res.PricesCreated),
	)
	return nil
}

func printUsage() {
	fmt.Println(`MedCare Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  steps <n>             Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations
  bootstrap             Create missing default plans and prices
  setup                 up followed by bootstrap

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  MEDCARE_DATABASE_HOST, MEDCARE_DATABASE_PORT, MEDCARE_DATABASE_USER,
  MEDCARE_DATABASE_PASSWORD, MEDCARE_DATABASE_DBNAME, MEDCARE_DATABASE_SSLMODE
  MEDCARE_ENTITLEMENT_DEFAULT_CURRENCY

Examples:
  migrate setup
  migrate steps -1
  migrate create add_plan_trials "Trial periods on plan configs"`)
}
