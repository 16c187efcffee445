// Package migration applies the SQL schema in migrations/ with golang-migrate
// and generates new migration file pairs.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator wraps a golang-migrate instance bound to a postgres connection
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Status is the schema version recorded in schema_migrations
type Status struct {
	Version uint
	Dirty   bool
	// Pending lists versions on disk above the applied version
	Pending []uint
}

// New creates a Migrator reading migrations from dir. The caller keeps
// ownership of db only until Close, which closes it through the driver.
func New(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations in %s: %w", dir, err)
	}
	m.Log = migrateLogger{logger.Named("migrate").Sugar()}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration
func (r *Migrator) Up() error {
	return r.run("up", r.m.Up)
}

// Down rolls back every applied migration
func (r *Migrator) Down() error {
	return r.run("down", r.m.Down)
}

// Steps applies n migrations; negative n rolls back
func (r *Migrator) Steps(n int) error {
	return r.run(fmt.Sprintf("steps %d", n), func() error { return r.m.Steps(n) })
}

// GoTo migrates up or down to version
func (r *Migrator) GoTo(version uint) error {
	return r.run(fmt.Sprintf("goto %d", version), func() error { return r.m.Migrate(version) })
}

func (r *Migrator) run(op string, fn func() error) error {
	r.logger.Info("Running migration", zap.String("op", op))
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s: %w", op, err)
	}

	version, dirty, err := r.Version()
	if err != nil {
		return err
	}
	r.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version; zero means nothing is applied
func (r *Migrator) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Status reports the applied version and the versions in dir still to run
func (r *Migrator) Status(dir string) (Status, error) {
	version, dirty, err := r.Version()
	if err != nil {
		return Status{}, err
	}
	files, err := List(dir)
	if err != nil {
		return Status{}, err
	}
	st := Status{Version: version, Dirty: dirty, Pending: []uint{}}
	for _, f := range files {
		if f.Version > version {
			st.Pending = append(st.Pending, f.Version)
		}
	}
	return st, nil
}

// Force records version as applied without running anything. Used to clear
// a dirty flag after a failed migration was repaired by hand.
func (r *Migrator) Force(version int) error {
	r.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := r.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table in the database
func (r *Migrator) Drop() error {
	r.logger.Warn("Dropping all database objects")
	if err := r.m.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// Close releases the source and the database connection
func (r *Migrator) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct {
	*zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.Debugf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
