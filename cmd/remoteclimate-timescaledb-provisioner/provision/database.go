package provision

import (
	"fmt"
)

// CreateDatabase creates the application database with UTF8 encoding
func CreateDatabase(cfg *Config) error {
	fmt.Printf("🗄️  Creating database %s\n", cfg.DBName)

	db, err := openAdmin(cfg, "postgres")
	if err != nil {
		return fmt.Errorf("failed to open an admin session: %w", err)
	}
	defer db.Close()

	// CREATE DATABASE with an explicit encoding requires template0
	stmt := fmt.Sprintf(
		"CREATE DATABASE %s ENCODING 'UTF8' LC_COLLATE 'en_US.UTF-8' LC_CTYPE 'en_US.UTF-8' TEMPLATE template0",
		cfg.DBName)
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create database %s: %w", cfg.DBName, err)
	}

	fmt.Println("✅ Created with UTF8 encoding")
	fmt.Println()
	return nil
}

// EnableTimescaleDB enables the TimescaleDB extension on the new database
func EnableTimescaleDB(cfg *Config) error {
	fmt.Println("🔌 Enabling the timescaledb extension")

	db, err := openAdmin(cfg, cfg.DBName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", cfg.DBName, err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		return fmt.Errorf("failed to create the extension: %w", err)
	}

	var version string
	err = db.QueryRow("SELECT extversion FROM pg_extension WHERE extname = 'timescaledb'").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to read the extension version: %w", err)
	}

	fmt.Printf("✅ timescaledb %s is enabled\n", version)
	fmt.Println()
	return nil
}

// DropExistingResources drops the database and user if they exist. Used by
// the --reprovision flag after the operator has confirmed.
func DropExistingResources(cfg *Config) error {
	fmt.Println("🗑️  Dropping the existing database and user")

	db, err := openAdmin(cfg, "postgres")
	if err != nil {
		return fmt.Errorf("failed to open an admin session: %w", err)
	}
	defer db.Close()

	// Open sessions would block the DROP DATABASE
	_, err = db.Exec(`
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, cfg.DBName)
	if err != nil {
		return fmt.Errorf("failed to terminate existing sessions: %w", err)
	}

	drops := []struct {
		what string
		stmt string
		done string
	}{
		{"database", fmt.Sprintf("DROP DATABASE IF EXISTS %s", cfg.DBName), fmt.Sprintf("Database '%s' dropped", cfg.DBName)},
		{"user", fmt.Sprintf("DROP USER IF EXISTS %s", cfg.DBUser), fmt.Sprintf("User '%s' dropped", cfg.DBUser)},
	}
	for _, d := range drops {
		if _, err := db.Exec(d.stmt); err != nil {
			return fmt.Errorf("failed to drop %s: %w", d.what, err)
		}
		fmt.Printf("✅ %s\n", d.done)
	}

	return nil
}
