package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// SchemaStatus is the migration state of the phenotype store.
type SchemaStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

func (s SchemaStatus) String() string {
	switch {
	case !s.Applied:
		return "no migrations applied"
	case s.Dirty:
		return fmt.Sprintf("version %d (dirty)", s.Version)
	default:
		return fmt.Sprintf("version %d", s.Version)
	}
}

// MigrationRunner applies the phenotype store schema in migrations/.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}
	return &MigrationRunner{migrate: m, log: logger}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mr *MigrationRunner) Up(ctx context.Context) error {
	return mr.apply(ctx, "up", mr.migrate.Up)
}

// Down rolls back steps migrations, or all of them when steps is not positive.
func (mr *MigrationRunner) Down(ctx context.Context, steps int) error {
	if steps <= 0 {
		return mr.apply(ctx, "down all", mr.migrate.Down)
	}
	return mr.apply(ctx, fmt.Sprintf("down %d", steps), func() error {
		return mr.migrate.Steps(-steps)
	})
}

// Status reports the applied schema version.
func (mr *MigrationRunner) Status() (SchemaStatus, error) {
	version, dirty, err := mr.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaStatus{}, nil
	}
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("reading schema version: %w", err)
	}
	return SchemaStatus{Version: version, Dirty: dirty, Applied: true}, nil
}

func (mr *MigrationRunner) apply(ctx context.Context, direction string, run func() error) error {
	logger := mr.log.WithField("direction", direction)
	logger.Info("Migrating phenotype store schema")

	// migrate stops between migrations once GracefulStop receives
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			mr.migrate.GracefulStop <- true
		case <-done:
		}
	}()

	if err := run(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Schema already at target version")
			return nil
		}
		return fmt.Errorf("migrating %s: %w", direction, err)
	}

	status, err := mr.Status()
	if err != nil {
		logger.WithError(err).Warn("Migrated but could not read schema version")
		return nil
	}
	logger.WithField("schema", status.String()).Info("Schema migrated")
	return nil
}

func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database: %w", dbErr)
	}
	return nil
}
