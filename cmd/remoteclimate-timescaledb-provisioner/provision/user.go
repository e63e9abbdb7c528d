package provision

import (
	"fmt"
)

// CreateUser creates the database user with the generated password and grants
// it full rights on the climate database.
func CreateUser(cfg *Config) error {
	fmt.Printf("👤 Creating user %s\n", cfg.DBUser)

	db, err := openAdmin(cfg, "postgres")
	if err != nil {
		return fmt.Errorf("failed to open an admin session: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("CREATE USER %s WITH PASSWORD '%s'", cfg.DBUser, cfg.DBPassword)); err != nil {
		return fmt.Errorf("failed to create user %s: %w", cfg.DBUser, err)
	}
	fmt.Println("✅ User created")

	if _, err := db.Exec(fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", cfg.DBName, cfg.DBUser)); err != nil {
		return fmt.Errorf("failed to grant privileges on %s: %w", cfg.DBName, err)
	}
	fmt.Printf("✅ Full rights on %s granted\n", cfg.DBName)

	if err := grantSchemaPrivileges(cfg); err != nil {
		return err
	}

	fmt.Println()
	return nil
}

// grantSchemaPrivileges connects to the target database and grants rights on
// the public schema plus default privileges for everything remoteclimate
// creates on first start: tables, sequences and the circular average
// aggregate functions.
func grantSchemaPrivileges(cfg *Config) error {
	db, err := openAdmin(cfg, cfg.DBName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", cfg.DBName, err)
	}
	defer db.Close()

	grants := []struct {
		what string
		stmt string
	}{
		{"schema", fmt.Sprintf("GRANT ALL ON SCHEMA public TO %s", cfg.DBUser)},
		{"default table", fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT ALL ON TABLES TO %s", cfg.DBUser)},
		{"default sequence", fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT ALL ON SEQUENCES TO %s", cfg.DBUser)},
		{"default function", fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT ALL ON FUNCTIONS TO %s", cfg.DBUser)},
	}
	for _, g := range grants {
		if _, err := db.Exec(g.stmt); err != nil {
			return fmt.Errorf("failed to grant %s privileges: %w", g.what, err)
		}
	}

	fmt.Println("✅ Schema rights and default privileges granted")
	return nil
}
