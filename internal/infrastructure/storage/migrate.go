package storage

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"ReviewHarvester/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// NewMigrator builds a migrate instance for the configured driver.
// The caller owns the returned instance and must Close it.
func NewMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	dir, url, err := migrationTarget(cfg)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations.
func MigrateUp(cfg config.DatabaseConfig) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func migrationTarget(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return "migrations/postgres", cfg.DSN, nil
	case DriverSQLite:
		path := strings.TrimPrefix(cfg.DSN, "file:")
		return "migrations/sqlite", "sqlite://" + path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
