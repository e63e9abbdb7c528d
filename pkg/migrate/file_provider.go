package migrate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// migrationFile matches versioned migration filenames such as
// 001_initial_schema.up.sql and 001_initial_schema.down.sql.
var migrationFile = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// FileProvider loads migrations from a directory of .up.sql/.down.sql files.
type FileProvider struct {
	dir     string
	table   string
	dialect string // "sqlite" or "postgres"
}

// NewFileProvider creates a provider for the given migration directory using
// the SQLite dialect for version tracking.
func NewFileProvider(dir, table string) *FileProvider {
	return NewFileProviderWithDriver(dir, table, "sqlite")
}

// NewFileProviderWithDriver creates a provider whose version-tracking
// statements match the given driver's dialect. An empty table name defaults
// to schema_migrations.
func NewFileProviderWithDriver(dir, table, driver string) *FileProvider {
	if table == "" {
		table = "schema_migrations"
	}
	return &FileProvider{
		dir:     dir,
		table:   table,
		dialect: driver,
	}
}

// GetMigrations reads every migration file in the directory and pairs up and
// down halves by version. Subdirectories and unrecognized files are ignored.
func (fp *FileProvider) GetMigrations() ([]Migration, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("reading migration directory %s: %w", fp.dir, err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationFile.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version number in file %s: %w", entry.Name(), err)
		}

		content, err := os.ReadFile(filepath.Join(fp.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", entry.Name(), err)
		}

		migration := byVersion[version]
		if migration == nil {
			migration = &Migration{
				Version: version,
				Name:    strings.ReplaceAll(matches[2], "_", " "),
			}
			byVersion[version] = migration
		}
		if matches[3] == "up" {
			migration.Up = string(content)
		} else {
			migration.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, migration := range byVersion {
		migrations = append(migrations, *migration)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// CreateMigrationTable creates the version-tracking table if it is missing.
func (fp *FileProvider) CreateMigrationTable(db *sql.DB) error {
	timestampType := "DATETIME"
	if fp.dialect == "postgres" {
		timestampType = "TIMESTAMP"
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at %s DEFAULT CURRENT_TIMESTAMP
		)
	`, fp.table, timestampType)

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("creating migration table: %w", err)
	}
	return nil
}

// GetCurrentVersion returns the highest applied migration version, or zero
// when none have been applied.
func (fp *FileProvider) GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", fp.table)
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("reading current schema version: %w", err)
	}
	return version, nil
}

// SetVersion records the given version. Recorded versions above it are
// discarded so a rollback reports the right version afterward.
func (fp *FileProvider) SetVersion(db DB, version int) error {
	placeholder := "?"
	if fp.dialect == "postgres" {
		placeholder = "$1"
	}

	prune := fmt.Sprintf("DELETE FROM %s WHERE version > %s", fp.table, placeholder)
	if _, err := db.Exec(prune, version); err != nil {
		return fmt.Errorf("clearing rolled-back versions: %w", err)
	}
	if version == 0 {
		return nil
	}

	var upsert string
	if fp.dialect == "postgres" {
		upsert = fmt.Sprintf(`
			INSERT INTO %s (version, applied_at)
			VALUES ($1, CURRENT_TIMESTAMP)
			ON CONFLICT (version) DO UPDATE SET applied_at = CURRENT_TIMESTAMP
		`, fp.table)
	} else {
		upsert = fmt.Sprintf(`
			INSERT OR REPLACE INTO %s (version, applied_at)
			VALUES (?, CURRENT_TIMESTAMP)
		`, fp.table)
	}
	if _, err := db.Exec(upsert, version); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}
