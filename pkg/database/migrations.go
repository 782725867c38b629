package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// MigrationsTable records the applied schema version.
const MigrationsTable = "zi_schema_migrations"

// MigrationState is the schema version recorded in MigrationsTable.
// Version is 0 on a database that has never been migrated.
type MigrationState struct {
	Version uint
	Dirty   bool
}

// migrator wraps a migrate instance together with the logger its Close uses.
type migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

func newMigrator(db *sql.DB, migrationsPath string, logger *zap.Logger) (*migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return &migrator{m: m, logger: logger}, nil
}

func (mg *migrator) close() {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		mg.logger.Warn("Failed to close migration source", zap.Error(srcErr))
	}
	if dbErr != nil {
		mg.logger.Warn("Failed to close migration database", zap.Error(dbErr))
	}
}

func (mg *migrator) state() (MigrationState, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationState{}, nil
	}
	if err != nil {
		return MigrationState{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationState{Version: version, Dirty: dirty}, nil
}

// RunMigrations applies every pending migration in migrationsPath.
// Running it against an up-to-date database is a no-op.
func RunMigrations(db *sql.DB, migrationsPath string, logger *zap.Logger) error {
	mg, err := newMigrator(db, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer mg.close()

	err = mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	st, err := mg.state()
	if err != nil {
		return err
	}
	logger.Info("Applied migrations",
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty))
	return nil
}

// RollbackMigrations reverts the last steps migrations.
func RollbackMigrations(db *sql.DB, migrationsPath string, steps int, logger *zap.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}

	mg, err := newMigrator(db, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer mg.close()

	if err := mg.m.Steps(-steps); err != nil {
		return fmt.Errorf("failed to roll back %d migration(s): %w", steps, err)
	}

	st, err := mg.state()
	if err != nil {
		return err
	}
	logger.Warn("Rolled back migrations",
		zap.Int("steps", steps),
		zap.Uint("version", st.Version))
	return nil
}

// GetMigrationState reports the applied schema version without changing it.
func GetMigrationState(db *sql.DB, migrationsPath string, logger *zap.Logger) (MigrationState, error) {
	mg, err := newMigrator(db, migrationsPath, logger)
	if err != nil {
		return MigrationState{}, err
	}
	defer mg.close()

	return mg.state()
}
