package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/chrissnell/remoteclimate/pkg/migrate"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const usageText = `Database Migration Tool

Usage:
  migrate [flags]

Flags:
  -driver string     Database driver: sqlite or postgres (default: sqlite)
  -dsn string        Database connection string (required)
  -dir string        Migration directory (default: migrations)
  -table string      Migration table name (default: schema_migrations)
  -command string    up, down, to, version or status (default: up)
  -target string     Target version for the down and to commands

Commands:
  up                 Apply all pending migrations
  down               Roll back to target version
  to                 Migrate to specific version (up or down)
  version            Show current migration version
  status             Show current version and pending migrations

Examples:
  migrate -dsn config.db -command up
  migrate -dsn config.db -command down -target 5
  migrate -dsn config.db -command status
  migrate -dsn config.db -dir migrations/config -table config_migrations
`

func main() {
	driver := flag.String("driver", "sqlite", "Database driver (sqlite, postgres)")
	dsn := flag.String("dsn", "", "Database connection string")
	dir := flag.String("dir", "migrations", "Migration directory")
	table := flag.String("table", "schema_migrations", "Migration table name")
	command := flag.String("command", "up", "Migration command: up, down, to, version, status")
	target := flag.String("target", "", "Target version for down/to commands")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "Error: -dsn flag is required")
		flag.Usage()
		os.Exit(1)
	}

	db, err := sql.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("pinging database: %v", err)
	}

	// The provider matches the migration SQL dialect to the driver
	migrator := migrate.NewMigrator(db, migrate.NewFileProviderWithDriver(*dir, *table, *driver))

	if err := run(migrator, *command, *target); err != nil {
		log.Fatalf("migrate %s: %v", *command, err)
	}
}

func run(m *migrate.Migrator, command, target string) error {
	switch command {
	case "up":
		if err := m.MigrateUp(); err != nil {
			return err
		}
	case "down":
		v, err := parseTarget(target)
		if err != nil {
			return err
		}
		if err := m.MigrateDown(v); err != nil {
			return err
		}
	case "to":
		v, err := parseTarget(target)
		if err != nil {
			return err
		}
		if err := m.MigrateTo(v); err != nil {
			return err
		}
	case "version":
		v, err := m.GetCurrentVersion()
		if err != nil {
			return fmt.Errorf("reading current schema version: %w", err)
		}
		fmt.Printf("Current version: %d\n", v)
		return nil
	case "status":
		return printStatus(m)
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	fmt.Println("Done.")
	return nil
}

func parseTarget(target string) (int, error) {
	if target == "" {
		return 0, fmt.Errorf("-target flag is required for this command")
	}
	v, err := strconv.Atoi(target)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q", target)
	}
	return v, nil
}

func printStatus(m *migrate.Migrator) error {
	current, err := m.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("reading current schema version: %w", err)
	}
	pending, err := m.GetPendingMigrations()
	if err != nil {
		return fmt.Errorf("listing pending migrations: %w", err)
	}

	fmt.Printf("Current version: %d\n", current)
	if len(pending) == 0 {
		fmt.Println("Schema is up to date.")
		return nil
	}
	fmt.Printf("%d migrations pending:\n", len(pending))
	for _, mig := range pending {
		fmt.Printf("  %d: %s\n", mig.Version, mig.Name)
	}
	return nil
}
