package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// MigrationState is the schema version reported by golang-migrate.
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (c *Connection) migrator(migrationsDir string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(c.db, &postgres.Config{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return m, nil
}

// RunMigrations applies every pending migration.
func (c *Connection) RunMigrations(migrationsDir string) error {
	m, err := c.migrator(migrationsDir)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError,
			fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	state, err := c.stateOf(m)
	if err != nil {
		c.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	c.logger.Info("Database migrations completed",
		logging.Int64("version", int64(state.Version)),
		logging.Bool("dirty", state.Dirty),
	)
	return nil
}

// RollbackMigrations reverts the last steps migrations.
func (c *Connection) RollbackMigrations(migrationsDir string, steps int) error {
	if steps <= 0 {
		return apperrors.Newf(apperrors.ErrCodeValidation, "steps must be greater than 0, got %d", steps)
	}
	m, err := c.migrator(migrationsDir)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return apperrors.New(apperrors.ErrCodeConflict, "no migrations to roll back")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, fmt.Sprintf("failed to roll back %d step(s)", steps))
	}
	return nil
}

// MigrationStatus reports the applied version; 0 when nothing ran yet.
func (c *Connection) MigrationStatus(migrationsDir string) (MigrationState, error) {
	m, err := c.migrator(migrationsDir)
	if err != nil {
		return MigrationState{}, err
	}
	return c.stateOf(m)
}

func (c *Connection) stateOf(m *migrate.Migrate) (MigrationState, error) {
	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return MigrationState{}, nil
		}
		return MigrationState{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return MigrationState{Version: version, Dirty: dirty}, nil
}

//Personal.AI order the ending
