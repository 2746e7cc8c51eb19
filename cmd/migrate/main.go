package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gemerp/backend/internal/infrastructure/config"
	"github.com/gemerp/backend/internal/infrastructure/logger"
	"github.com/gemerp/backend/internal/infrastructure/migration"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// command is one CLI verb. Offline commands work on the migration files only.
type command struct {
	usage   string
	minArgs int
	offline func(root string, args []string, log *zap.Logger) error
	online  func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var commands = map[string]command{
	"up":      {usage: "up", online: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() }},
	"down":    {usage: "down", online: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() }},
	"steps":   {usage: "steps <n>", minArgs: 1, online: runSteps},
	"goto":    {usage: "goto <version>", minArgs: 1, online: runGoTo},
	"version": {usage: "version", online: runVersion},
	"force":   {usage: "force <version>", minArgs: 1, online: runForce},
	"drop":    {usage: "drop -confirm", online: runDrop},
	"create":  {usage: "create <name> [description]", minArgs: 1, offline: runCreate},
	"list":    {usage: "list", offline: runList},
}

func main() {
	var migrationsPath, logLevel string
	flag.StringVar(&migrationsPath, "path", "", "Migrations root holding one directory per driver (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	name, rest := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", name)
		printUsage()
		os.Exit(1)
	}
	if len(rest) < cmd.minArgs {
		fmt.Fprintf(os.Stderr, "Usage: migrate %s\n", cmd.usage)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
		Service:    "gemerp-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	root := resolveMigrationsPath(migrationsPath)
	log.Debug("Migration CLI started", zap.String("command", name), zap.String("migrations_path", root))

	if cmd.offline != nil {
		err = cmd.offline(root, rest, log)
	} else {
		err = runOnline(root, func(m *migration.Migrator) error { return cmd.online(m, rest, log) }, log)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

// runOnline opens the configured database and hands a Migrator to fn
func runOnline(root string, fn func(*migration.Migrator) error, log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	driver := cfg.Database.Driver
	if driver == config.DriverSQLite {
		return errors.New("sqlite schemas are created from the models at startup; nothing to migrate")
	}

	dsn := cfg.Database.DSN()
	if driver == config.DriverMySQL {
		dsn += "&multiStatements=true"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, driver, migration.Dir(root, driver), log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Closing migrator", zap.Error(err))
		}
	}()
	return fn(m)
}

func runSteps(m *migration.Migrator, args []string, _ *zap.Logger) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n == 0 {
		return fmt.Errorf("invalid step count %q", args[0])
	}
	return m.Steps(n)
}

func runGoTo(m *migration.Migrator, args []string, _ *zap.Logger) error {
	version, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid version %q", args[0])
	}
	return m.GoTo(uint(version))
}

func runVersion(m *migration.Migrator, _ []string, log *zap.Logger) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("No migrations applied")
		return nil
	}
	log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func runForce(m *migration.Migrator, args []string, _ *zap.Logger) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[0])
	}
	return m.Force(version)
}

func runDrop(m *migration.Migrator, args []string, _ *zap.Logger) error {
	for _, a := range args {
		if a == "-confirm" || a == "--confirm" {
			return m.Drop()
		}
	}
	return errors.New("drop cancelled; run 'migrate drop -confirm' to destroy all data")
}

func runCreate(root string, args []string, log *zap.Logger) error {
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	files, err := migration.CreateMigration(root, args[0], description)
	if err != nil {
		return err
	}
	for _, mf := range files {
		log.Info("Migration created",
			zap.String("driver", mf.Driver),
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
	}
	return nil
}

func runList(root string, _ []string, _ *zap.Logger) error {
	for _, driver := range migration.Drivers {
		names, err := migration.ListMigrations(migration.Dir(root, driver))
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d)\n", driver, len(names))
		for _, n := range names {
			fmt.Println("  -", n)
		}
	}
	return nil
}

// resolveMigrationsPath finds the migrations root in the working directory or
// two levels above the executable
func resolveMigrationsPath(path string) string {
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
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Gem ERP database migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  steps <n>             Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Set the version and clear the dirty flag
  drop -confirm         Drop every table (destroys all data)
  create <name> [desc]  Create a migration pair for every driver
  list                  List migrations per driver

Flags:
  -path string          Migrations root, one directory per driver (default: ./migrations)
  -log-level string     debug, info, warn or error (default: info)

The database comes from GEMERP_DATABASE_DRIVER (postgres or mysql), GEMERP_DATABASE_HOST,
GEMERP_DATABASE_PORT, GEMERP_DATABASE_USER, GEMERP_DATABASE_PASSWORD, GEMERP_DATABASE_DBNAME
and GEMERP_DATABASE_SSLMODE, or a .env file.
`)
}
