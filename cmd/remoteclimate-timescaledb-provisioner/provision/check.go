package provision

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Config carries the admin credentials, the resources to create, and where
// the resulting connection string gets recorded.
type Config struct {
	PostgresHost     string
	PostgresPort     int
	PostgresAdmin    string
	PostgresPassword string
	UsePeerAuth      bool
	DBName           string
	DBUser           string
	DBPassword       string
	SSLMode          string
	Timezone         string
	ConfigDBPath     string
}

// BuildConnString builds a key/value connection string for the admin user
// against the given database. The password key is omitted when empty so that
// peer authentication over the local socket can be attempted.
func (c *Config) BuildConnString(dbname string) string {
	parts := []string{
		fmt.Sprintf("host=%s", c.PostgresHost),
		fmt.Sprintf("port=%d", c.PostgresPort),
		fmt.Sprintf("user=%s", c.PostgresAdmin),
		fmt.Sprintf("dbname=%s", dbname),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	if c.PostgresPassword != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.PostgresPassword))
	}
	return strings.Join(parts, " ")
}

// ConnectionString returns the DSN the application will use to reach the
// provisioned database. This is the string written to config.db.
func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresPort, c.DBUser, c.DBPassword, c.DBName, c.SSLMode, c.Timezone)
}

// openAdmin opens and pings an admin connection to the named database.
// Callers own the returned handle.
func openAdmin(cfg *Config, dbname string) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.BuildConnString(dbname))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// PreflightChecks validates the environment before anything is created.
func PreflightChecks(cfg *Config) error {
	fmt.Println("🔍 Checking prerequisites")

	steps := []struct {
		fail string
		ok   string
		run  func(*Config) error
	}{
		{"PostgreSQL connection failed", "PostgreSQL connection successful", checkPostgreSQLConnection},
		{"TimescaleDB extension not available", "TimescaleDB extension available", checkTimescaleDBAvailable},
		{"Config database check failed", fmt.Sprintf("Config database found: %s", cfg.ConfigDBPath), checkConfigDB},
		{"Resource check failed", "No existing database/user conflicts", checkExistingResources},
	}

	for _, step := range steps {
		if err := step.run(cfg); err != nil {
			return fmt.Errorf("❌ %s: %w", step.fail, err)
		}
		fmt.Printf("✅ %s\n", step.ok)
	}

	fmt.Println()
	return nil
}

// checkPostgreSQLConnection confirms an admin session can run a query.
func checkPostgreSQLConnection(cfg *Config) error {
	db, err := openAdmin(cfg, "postgres")
	if err != nil {
		return err
	}
	defer db.Close()

	var version string
	return db.QueryRow("SELECT version()").Scan(&version)
}

// checkTimescaleDBAvailable confirms the server ships the timescaledb
// extension.
func checkTimescaleDBAvailable(cfg *Config) error {
	db, err := openAdmin(cfg, "postgres")
	if err != nil {
		return err
	}
	defer db.Close()

	var available bool
	query := "SELECT EXISTS(SELECT 1 FROM pg_available_extensions WHERE name = 'timescaledb')"
	if err := db.QueryRow(query).Scan(&available); err != nil {
		return err
	}
	if !available {
		return fmt.Errorf("the server does not ship the timescaledb extension")
	}
	return nil
}

// checkConfigDB verifies the config database exists and holds a configs table
func checkConfigDB(cfg *Config) error {
	if _, err := os.Stat(cfg.ConfigDBPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config database not found at %s", cfg.ConfigDBPath)
		}
		return err
	}

	db, err := sql.Open("sqlite", cfg.ConfigDBPath)
	if err != nil {
		return fmt.Errorf("failed to open config.db: %w", err)
	}
	defer db.Close()

	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='configs'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return fmt.Errorf("configs table not found - is this a valid remoteclimate config.db?")
	}
	if err != nil {
		return fmt.Errorf("failed to read config.db: %w", err)
	}
	return nil
}

// checkExistingResources reports a conflict when the database or user exists
func checkExistingResources(cfg *Config) error {
	db, err := openAdmin(cfg, "postgres")
	if err != nil {
		return err
	}
	defer db.Close()

	probes := []struct {
		kind  string
		query string
		name  string
	}{
		{"Database", "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName},
		{"User", "SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)", cfg.DBUser},
	}

	conflict := false
	for _, p := range probes {
		var exists bool
		if err := db.QueryRow(p.query, p.name).Scan(&exists); err != nil {
			return err
		}
		if exists {
			fmt.Printf("⚠️  %s '%s' already exists\n", p.kind, p.name)
			conflict = true
		}
	}
	if conflict {
		return fmt.Errorf("database or user already exists (use --reprovision to recreate)")
	}
	return nil
}

// TestConnection verifies the application credentials work against the
// provisioned database and that the user can create and drop tables.
func TestConnection(cfg *Config) error {
	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open the application connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping with the application credentials: %w", err)
	}

	var extExists bool
	err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')").Scan(&extExists)
	if err != nil {
		return fmt.Errorf("failed to verify the timescaledb extension: %w", err)
	}
	if !extExists {
		return fmt.Errorf("timescaledb extension is not enabled in %s", cfg.DBName)
	}

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS _provisioner_test (id SERIAL PRIMARY KEY)",
		"DROP TABLE IF EXISTS _provisioner_test",
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("table permission check failed: %w", err)
		}
	}

	return nil
}
