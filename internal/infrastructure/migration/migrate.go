// Package migration applies the versioned SQL schema with golang-migrate.
// PostgreSQL and MySQL each have their own directory of migration pairs;
// SQLite databases are built from the GORM models instead.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gemerp/backend/internal/infrastructure/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// ErrDirty is returned when a previous migration failed half way. The schema
// must be repaired by hand and the version set with Force before migrating again.
var ErrDirty = errors.New("database schema is dirty")

// Migrator runs migrations for one database
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Dir returns the migrations directory of a driver under root, e.g. migrations/postgres
func Dir(root, driver string) string {
	return filepath.Join(root, driver)
}

// New creates a Migrator on an open connection. A mysql connection must be
// opened with multiStatements=true.
func New(db *sql.DB, driver, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	var (
		instance database.Driver
		err      error
	)
	switch driver {
	case config.DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	case config.DriverMySQL:
		instance, err = mysql.WithInstance(db, &mysql.Config{})
	default:
		return nil, fmt.Errorf("migrations are not supported for driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s migration driver: %w", driver, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, driver, instance)
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", migrationsPath, err)
	}
	return newMigrator(m, logger), nil
}

func newMigrator(m *migrate.Migrate, logger *zap.Logger) *Migrator {
	m.Log = &zapMigrateLogger{logger: logger.Named("migrate")}
	return &Migrator{m: m, logger: logger}
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.apply("up", m.m.Up)
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	return m.apply("down", m.m.Down)
}

// Steps applies n migrations; a negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps %d", n), func() error { return m.m.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

// apply refuses to run on a dirty schema, treats "no change" as success and
// logs the version reached
func (m *Migrator) apply(op string, run func() error) error {
	if _, dirty, err := m.Version(); err != nil {
		return err
	} else if dirty {
		return fmt.Errorf("migrate %s: %w", op, ErrDirty)
	}

	err := run()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, _, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration finished", zap.String("op", op), zap.Uint("version", version))
	return nil
}

// Version returns the applied version; zero means nothing has been applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without running anything
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	m.logger.Warn("Migration version forced", zap.Int("version", version))
	return nil
}

// Drop removes every table, including the migration bookkeeping
func (m *Migrator) Drop() error {
	if err := m.m.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	m.logger.Warn("Schema dropped")
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// zapMigrateLogger implements migrate.Logger
type zapMigrateLogger struct {
	logger *zap.Logger
}

func (l *zapMigrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *zapMigrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
