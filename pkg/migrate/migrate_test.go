package migrate

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func writeMigration(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("writing migration %s: %v", name, err)
	}
}

func newTestMigrator(t *testing.T) (*Migrator, *sql.DB) {
	t.Helper()
	dir := t.TempDir()

	writeMigration(t, dir, "001_create_readings.up.sql",
		"CREATE TABLE readings (id INTEGER PRIMARY KEY, ppm REAL);")
	writeMigration(t, dir, "001_create_readings.down.sql",
		"DROP TABLE readings;")
	writeMigration(t, dir, "002_add_site.up.sql",
		"ALTER TABLE readings ADD COLUMN site TEXT;")
	writeMigration(t, dir, "002_add_site.down.sql",
		"ALTER TABLE readings DROP COLUMN site;")
	writeMigration(t, dir, "README.md", "not a migration")

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewMigrator(db, NewFileProvider(dir, "")), db
}

func TestFileProviderGetMigrations(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_create_readings.up.sql", "CREATE TABLE readings (id INTEGER);")
	writeMigration(t, dir, "001_create_readings.down.sql", "DROP TABLE readings;")
	writeMigration(t, dir, "002_add_site.up.sql", "ALTER TABLE readings ADD COLUMN site TEXT;")
	writeMigration(t, dir, "notes.txt", "ignored")

	migrations, err := NewFileProvider(dir, "").GetMigrations()
	if err != nil {
		t.Fatalf("GetMigrations returned error: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	first := migrations[0]
	if first.Version != 1 || first.Name != "create readings" {
		t.Errorf("first migration = %d %q", first.Version, first.Name)
	}
	if first.Up == "" || first.Down == "" {
		t.Error("first migration should have both up and down SQL")
	}
	if migrations[1].Down != "" {
		t.Error("second migration has no down file, Down should be empty")
	}
}

func TestMigrateUp(t *testing.T) {
	migrator, db := newTestMigrator(t)

	if err := migrator.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp returned error: %v", err)
	}

	version, err := migrator.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion returned error: %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}

	// Both migrations must have taken effect on the schema.
	if _, err := db.Exec("INSERT INTO readings (ppm, site) VALUES (421.1, 'MLO')"); err != nil {
		t.Errorf("insert into migrated table failed: %v", err)
	}

	// A second run has nothing to do.
	if err := migrator.MigrateUp(); err != nil {
		t.Errorf("repeated MigrateUp returned error: %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	migrator, db := newTestMigrator(t)

	if err := migrator.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp returned error: %v", err)
	}
	if err := migrator.MigrateDown(1); err != nil {
		t.Fatalf("MigrateDown(1) returned error: %v", err)
	}

	version, err := migrator.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion returned error: %v", err)
	}
	if version != 1 {
		t.Errorf("version after rollback = %d, want 1", version)
	}
	if _, err := db.Exec("INSERT INTO readings (site) VALUES ('MLO')"); err == nil {
		t.Error("site column should be gone after rollback")
	}

	if err := migrator.MigrateDown(0); err != nil {
		t.Fatalf("MigrateDown(0) returned error: %v", err)
	}
	version, err = migrator.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion returned error: %v", err)
	}
	if version != 0 {
		t.Errorf("version after full rollback = %d, want 0", version)
	}
}

func TestMigrateDownRequiresLowerTarget(t *testing.T) {
	migrator, _ := newTestMigrator(t)

	if err := migrator.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp returned error: %v", err)
	}
	if err := migrator.MigrateDown(5); err == nil {
		t.Error("expected error for target above current version")
	}
}

func TestGetPendingMigrations(t *testing.T) {
	migrator, _ := newTestMigrator(t)

	pending, err := migrator.GetPendingMigrations()
	if err != nil {
		t.Fatalf("GetPendingMigrations returned error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}

	if err := migrator.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1) returned error: %v", err)
	}
	pending, err = migrator.GetPendingMigrations()
	if err != nil {
		t.Fatalf("GetPendingMigrations returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("pending after partial migrate = %+v", pending)
	}
}
