package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations (Up) for the handle's driver.
// Every statement is CREATE ... IF NOT EXISTS, so running it at each startup is safe.
// Returns nil if migrations were applied or if already at latest version (ErrNoChange).
func Migrate(db *sqlx.DB) error {
	driver := db.DriverName()

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	var target database.Driver
	switch driver {
	case DriverPostgres:
		target, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		target, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	default:
		err = fmt.Errorf("no migrations for driver %q", driver)
	}
	if err != nil {
		src.Close()
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		src.Close()
		return fmt.Errorf("migrate new: %w", err)
	}

	upErr := m.Up()

	// The sqlite3 driver closes the *sql.DB it was given; the postgres driver only
	// releases the single connection it borrowed.
	if driver == DriverPostgres {
		m.Close()
	} else {
		src.Close()
	}

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", upErr)
	}
	return nil
}
