// Package migrate applies versioned SQL schema migrations.
package migrate

import (
	"cmp"
	"database/sql"
	"fmt"
	"slices"
	"time"
)

// Migration is one schema change, with SQL to apply it and to revert it.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// MigrationProvider supplies migrations and tracks the applied version.
type MigrationProvider interface {
	GetMigrations() ([]Migration, error)
	GetCurrentVersion(db *sql.DB) (int, error)
	SetVersion(db DB, version int) error
	CreateMigrationTable(db *sql.DB) error
}

// Migrator applies and reverts migrations against a database.
type Migrator struct {
	db       *sql.DB
	provider MigrationProvider
}

// NewMigrator creates a migrator for the given database and provider.
func NewMigrator(db *sql.DB, provider MigrationProvider) *Migrator {
	return &Migrator{db: db, provider: provider}
}

// MigrateUp applies every pending migration.
func (m *Migrator) MigrateUp() error {
	return m.MigrateTo(-1)
}

// MigrateTo migrates up or down until the schema is at targetVersion. A
// target of -1 means the latest known version.
func (m *Migrator) MigrateTo(targetVersion int) error {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return fmt.Errorf("creating migration table: %w", err)
	}

	currentVersion, err := m.provider.GetCurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("reading current schema version: %w", err)
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	sortByVersion(migrations, true)

	if targetVersion == -1 {
		if len(migrations) == 0 {
			return nil
		}
		targetVersion = migrations[len(migrations)-1].Version
	}
	if targetVersion < currentVersion {
		return m.MigrateDown(targetVersion)
	}

	return m.applyRange(migrations, currentVersion, targetVersion, true)
}

// MigrateDown reverts applied migrations until the schema is at targetVersion.
func (m *Migrator) MigrateDown(targetVersion int) error {
	currentVersion, err := m.provider.GetCurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("reading current schema version: %w", err)
	}
	if targetVersion >= currentVersion {
		return fmt.Errorf("cannot migrate down: target version %d is not below current version %d", targetVersion, currentVersion)
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	sortByVersion(migrations, false)

	return m.applyRange(migrations, targetVersion, currentVersion, false)
}

// applyRange runs, in the order given, every migration with a version in
// (lo, hi]. The half-open range is the same in both directions: migrating up,
// lo is the schema's version; rolling back, lo is the target.
func (m *Migrator) applyRange(migrations []Migration, lo, hi int, up bool) error {
	verb := "apply"
	if !up {
		verb = "rollback"
	}
	for _, migration := range migrations {
		if migration.Version > lo && migration.Version <= hi {
			if err := m.apply(migration, up); err != nil {
				return fmt.Errorf("%s of migration %d failed: %w", verb, migration.Version, err)
			}
		}
	}
	return nil
}

// GetCurrentVersion returns the version the schema is currently at.
func (m *Migrator) GetCurrentVersion() (int, error) {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return 0, fmt.Errorf("creating migration table: %w", err)
	}
	return m.provider.GetCurrentVersion(m.db)
}

// GetPendingMigrations returns the migrations newer than the current version,
// oldest first.
func (m *Migrator) GetPendingMigrations() ([]Migration, error) {
	currentVersion, err := m.GetCurrentVersion()
	if err != nil {
		return nil, err
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration)
		}
	}
	sortByVersion(pending, true)

	return pending, nil
}

func sortByVersion(migrations []Migration, ascending bool) {
	slices.SortFunc(migrations, func(a, b Migration) int {
		if ascending {
			return cmp.Compare(a.Version, b.Version)
		}
		return cmp.Compare(b.Version, a.Version)
	})
}

// apply executes one migration inside a transaction and records the new
// version before committing.
func (m *Migrator) apply(migration Migration, up bool) error {
	direction, stmt, newVersion := "up", migration.Up, migration.Version
	if !up {
		direction, stmt, newVersion = "down", migration.Down, migration.Version-1
	}
	if stmt == "" {
		return fmt.Errorf("migration %d has no %s SQL", migration.Version, direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}
	if err := m.provider.SetVersion(tx, newVersion); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	done := "applied"
	if !up {
		done = "rolled back"
	}
	fmt.Printf("%s migration %d (%s) at %s\n", done, migration.Version, migration.Name, time.Now().Format(time.RFC3339))
	return nil
}
