package provision

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// UpdateConfigDB writes the new connection string into the daemon's SQLite
// config database, creating the default config row when the database is
// fresh.
func UpdateConfigDB(cfg *Config) error {
	fmt.Println("⚙️  Recording the connection in config.db...")

	db, err := sql.Open("sqlite", cfg.ConfigDBPath)
	if err != nil {
		return fmt.Errorf("failed to open config database: %w", err)
	}
	defer db.Close()

	configID, err := defaultConfigID(db)
	if err != nil {
		return err
	}
	if err := upsertStorageRow(db, configID, cfg.ConnectionString()); err != nil {
		return err
	}

	fmt.Println("✅ config.db now points at the new database")
	fmt.Println()
	return nil
}

// defaultConfigID returns the id of the 'default' config row, inserting the
// row when none exists yet.
func defaultConfigID(db *sql.DB) (int64, error) {
	var id int64
	err := db.QueryRow("SELECT id FROM configs WHERE name = 'default'").Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := db.Exec("INSERT INTO configs (name) VALUES ('default')")
		if err != nil {
			return 0, fmt.Errorf("failed to create default config row: %w", err)
		}
		return result.LastInsertId()
	case err != nil:
		return 0, fmt.Errorf("failed to look up default config row: %w", err)
	}
	return id, nil
}

// upsertStorageRow points the timescaledb storage row at connString,
// inserting the row on first provisioning.
func upsertStorageRow(db *sql.DB, configID int64, connString string) error {
	var id int64
	err := db.QueryRow(
		"SELECT id FROM storage_configs WHERE config_id = ? AND backend_type = 'timescaledb'",
		configID).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec(
			"INSERT INTO storage_configs (config_id, backend_type, enabled, timescale_connection_string) VALUES (?, 'timescaledb', 1, ?)",
			configID, connString)
		if err != nil {
			return fmt.Errorf("failed to insert storage row: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up storage row: %w", err)
	default:
		_, err = db.Exec(
			"UPDATE storage_configs SET enabled = 1, timescale_connection_string = ? WHERE id = ?",
			connString, id)
		if err != nil {
			return fmt.Errorf("failed to update storage row: %w", err)
		}
	}
	return nil
}

// GetStorageConfig reads the TimescaleDB connection string back out of
// config.db and splits it into a Config.
func GetStorageConfig(configDBPath string) (*Config, error) {
	db, err := sql.Open("sqlite", configDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config database: %w", err)
	}
	defer db.Close()

	var connString sql.NullString
	err = db.QueryRow(`SELECT timescale_connection_string FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		  AND backend_type = 'timescaledb'`).Scan(&connString)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("config.db has no timescaledb storage backend")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage row: %w", err)
	}
	if !connString.Valid || connString.String == "" {
		return nil, fmt.Errorf("timescaledb backend has no connection string")
	}

	cfg := parseConnString(connString.String)
	cfg.ConfigDBPath = configDBPath
	return cfg, nil
}

// parseConnString splits a key/value DSN back into its parts. Keys the
// provisioner does not know about are ignored.
func parseConnString(connString string) *Config {
	cfg := &Config{}
	for _, field := range strings.Fields(connString) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		switch key {
		case "host":
			cfg.PostgresHost = value
		case "port":
			if port, err := strconv.Atoi(value); err == nil {
				cfg.PostgresPort = port
			}
		case "user":
			cfg.DBUser = value
		case "password":
			cfg.DBPassword = value
		case "dbname":
			cfg.DBName = value
		case "sslmode":
			cfg.SSLMode = value
		case "TimeZone":
			cfg.Timezone = value
		}
	}
	return cfg
}
