package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/remoteclimate/pkg/config"
	"github.com/chrissnell/remoteclimate/pkg/migrate"
	_ "modernc.org/sqlite"
)

// Locations probed for the config schema migrations when -migrations-dir is
// not given, most specific first.
var migrationsDirCandidates = []string{
	"migrations/config",
	"/usr/share/remoteclimate/migrations/config",
	"/usr/local/share/remoteclimate/migrations/config",
}

func main() {
	var (
		yamlFile      = flag.String("yaml", "", "YAML configuration file to convert (required)")
		sqliteFile    = flag.String("sqlite", "", "SQLite database file to create (required)")
		migrationsDir = flag.String("migrations-dir", "", "config schema migrations directory (default: probe known locations)")
		force         = flag.Bool("force", false, "overwrite the SQLite database if it exists")
		dryRun        = flag.Bool("dry-run", false, "parse and summarize the YAML without writing anything")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *migrationsDir == "" {
		*migrationsDir = detectMigrationsDir()
	}

	if err := run(*yamlFile, *sqliteFile, *migrationsDir, *force, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(yamlFile, sqliteFile, migrationsDir string, force, dryRun bool) error {
	if _, err := os.Stat(yamlFile); os.IsNotExist(err) {
		return fmt.Errorf("YAML file does not exist: %s", yamlFile)
	}
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s (use -migrations-dir to specify the correct path)", migrationsDir)
	}
	if _, err := os.Stat(sqliteFile); err == nil && !force {
		return fmt.Errorf("SQLite file already exists: %s (use -force to overwrite or choose a different filename)", sqliteFile)
	}

	fmt.Printf("Converting %s -> %s (schema from %s)\n", yamlFile, sqliteFile, migrationsDir)
	if dryRun {
		fmt.Println("Dry run: nothing will be written")
	}

	fmt.Println("Parsing the YAML configuration...")
	configData, err := config.NewYAMLProvider(yamlFile).LoadConfig()
	if err != nil {
		return fmt.Errorf("loading YAML configuration: %w", err)
	}
	fmt.Printf("  found %d locations and %d controllers\n", len(configData.Locations), len(configData.Controllers))

	if dryRun {
		printConfigSummary(configData)
		fmt.Println("Dry run finished; no database was created")
		return nil
	}

	if force {
		if err := os.Remove(sqliteFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing existing SQLite file: %w", err)
		}
	}

	if err := convertToSQLite(sqliteFile, migrationsDir, configData); err != nil {
		return err
	}
	if err := verifyConversion(sqliteFile, configData); err != nil {
		return fmt.Errorf("verifying converted database: %w", err)
	}

	fmt.Println("Conversion complete.")
	fmt.Printf("Use it with: -config-backend sqlite -config %s\n", sqliteFile)
	return nil
}

func detectMigrationsDir() string {
	for _, candidate := range migrationsDirCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return migrationsDirCandidates[0]
}

// convertToSQLite creates the database file, applies the config schema
// migrations and writes the loaded configuration into it.
func convertToSQLite(dbPath, migrationsDir string, configData *config.ConfigData) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	fmt.Println("Applying the config schema...")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	migrator := migrate.NewMigrator(db, migrate.NewFileProvider(migrationsDir, "schema_migrations"))
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return fmt.Errorf("applying config schema: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	fmt.Printf("Writing %d locations, source and storage configuration, and %d controllers...\n",
		len(configData.Locations), len(configData.Controllers))
	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("opening SQLite provider: %w", err)
	}
	defer provider.Close()
	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	return nil
}

// verifyConversion reloads the converted database and checks the section
// counts against the YAML source.
func verifyConversion(dbPath string, want *config.ConfigData) error {
	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return err
	}
	defer provider.Close()

	got, err := provider.LoadConfig()
	if err != nil {
		return err
	}
	if len(got.Locations) != len(want.Locations) {
		return fmt.Errorf("location count mismatch: wrote %d, read back %d", len(want.Locations), len(got.Locations))
	}
	if len(got.Controllers) != len(want.Controllers) {
		return fmt.Errorf("controller count mismatch: wrote %d, read back %d", len(want.Controllers), len(got.Controllers))
	}
	fmt.Printf("  verified: %d locations and %d controllers round-tripped\n", len(got.Locations), len(got.Controllers))
	return nil
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Printf("\nLocations (%d):\n", len(configData.Locations))
	for _, location := range configData.Locations {
		fmt.Printf("  - %s (%.4f, %.4f)\n", location.Name, location.Latitude, location.Longitude)
	}

	fmt.Println("\nSources:")
	if configData.Sources.NOAACO2 != nil {
		fmt.Printf("  - NOAA CO2 feed: %s\n", configData.Sources.NOAACO2.URL)
	}
	if configData.Sources.OpenWeather != nil {
		fmt.Printf("  - OpenWeatherMap (air quality: %t)\n", configData.Sources.OpenWeather.AirQuality)
	}

	fmt.Println("\nStorage:")
	if configData.Storage.TimescaleDB != nil {
		fmt.Printf("  - TimescaleDB: %s\n", configData.Storage.TimescaleDB.ConnectionString)
	}

	fmt.Printf("\nControllers (%d):\n", len(configData.Controllers))
	for _, controller := range configData.Controllers {
		fmt.Printf("  - %s\n", controller.Type)
	}
}
