package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chrissnell/remoteclimate/cmd/remoteclimate-timescaledb-provisioner/provision"
)

// ANSI escapes for the console output
const (
	colorReset        = "\033[0m"
	colorBrightCyan   = "\033[96m"
	colorBrightYellow = "\033[93m"
	colorBold         = "\033[1m"
)

const (
	DefaultDBName    = "climate"
	DefaultDBUser    = "remoteclimate"
	DefaultHost      = "localhost"
	DefaultPort      = 5432
	DefaultSSLMode   = "prefer"
	DefaultTimezone  = "UTC"
	DefaultConfigDB  = "/var/lib/remoteclimate/config.db"
	DefaultAdminUser = "postgres"
)

func main() {
	requireRoot()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Each subcommand parses its own flags
	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "test":
		runTest(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

// requireRoot exits unless running as root. Editing pg_hba.conf, reloading
// the server, and writing the config database all need it.
func requireRoot() {
	if os.Geteuid() == 0 {
		return
	}
	for _, line := range []string{
		"❌ Root privileges are required.",
		"",
		"The provisioner needs root to edit pg_hba.conf, reload PostgreSQL,",
		"and write " + DefaultConfigDB + ".",
		"",
		"Run it as:",
	} {
		fmt.Println(line)
	}
	fmt.Printf("  %s%ssudo remoteclimate-timescaledb-provisioner init%s\n", colorBold, colorBrightCyan, colorReset)
	fmt.Println()
	fmt.Println("An admin password is optional; without one, init connects over the")
	fmt.Println("local socket and repairs pg_hba.conf itself if needed.")
	fmt.Println()
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`remoteclimate TimescaleDB provisioner

Usage:
  remoteclimate-timescaledb-provisioner <command> [flags]

Commands:
  init     create the database, user, and TimescaleDB extension
  status   print the storage settings recorded in config.db
  test     connect with the recorded settings and verify privileges

Each command takes its own flags; see <command> -h.

Examples:
`)
	examples := []struct{ comment, cmd string }{
		{"typical first run", "sudo remoteclimate-timescaledb-provisioner init"},
		{"admin password from the environment", "POSTGRES_ADMIN_PASSWORD=secret sudo -E remoteclimate-timescaledb-provisioner init"},
		{"remote server with a custom database name", "remoteclimate-timescaledb-provisioner init --postgres-host db.example.com --db-name climate2"},
		{"wipe everything and start over", "sudo remoteclimate-timescaledb-provisioner init --reprovision"},
	}
	for _, ex := range examples {
		fmt.Printf("  # %s\n  %s%s%s\n\n", ex.comment, colorBrightCyan, ex.cmd, colorReset)
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var (
		dbName        = fs.String("db-name", DefaultDBName, "Database name to create")
		dbUser        = fs.String("db-user", DefaultDBUser, "Database user to create")
		host          = fs.String("postgres-host", DefaultHost, "PostgreSQL host")
		port          = fs.Int("postgres-port", DefaultPort, "PostgreSQL port")
		admin         = fs.String("postgres-admin", DefaultAdminUser, "PostgreSQL admin user")
		adminPassword = fs.String("postgres-admin-password", "", "PostgreSQL admin password (or use POSTGRES_ADMIN_PASSWORD env var)")
		sslMode       = fs.String("ssl-mode", DefaultSSLMode, "SSL mode (disable, require, prefer)")
		timezone      = fs.String("timezone", DefaultTimezone, "Database timezone")
		configDB      = fs.String("config-db", DefaultConfigDB, "Path to remoteclimate config.db")
		interactive   = fs.Bool("interactive", false, "Run in interactive mode")
		reprovision   = fs.Bool("reprovision", false, "Drop existing database and user before provisioning (DESTRUCTIVE)")
	)
	fs.Parse(args)

	fmt.Println("🚀 Provisioning TimescaleDB for remoteclimate")
	fmt.Println()

	password := *adminPassword
	if password == "" {
		password = os.Getenv("POSTGRES_ADMIN_PASSWORD")
	}

	adminUser := *admin
	if *interactive {
		adminUser = promptDefault(fmt.Sprintf("PostgreSQL admin user [%s]: ", adminUser), adminUser)
		fmt.Println()
	}

	// Generate password for the database user
	dbPassword, err := provision.GeneratePassword(provision.PasswordLength)
	if err != nil {
		fatalf("Failed to generate password: %v", err)
	}

	// An empty admin password means peer auth over the local socket is
	// attempted first.
	cfg := &provision.Config{
		PostgresHost:     *host,
		PostgresPort:     *port,
		PostgresAdmin:    adminUser,
		PostgresPassword: password,
		UsePeerAuth:      password == "",
		DBName:           *dbName,
		DBUser:           *dbUser,
		DBPassword:       dbPassword,
		SSLMode:          *sslMode,
		Timezone:         *timezone,
		ConfigDBPath:     *configDB,
	}

	fmt.Printf(`Target:
  server     %s:%d (ssl %s)
  database   %s, timezone %s
  user       %s
  config.db  %s

`, cfg.PostgresHost, cfg.PostgresPort, cfg.SSLMode, cfg.DBName, cfg.Timezone, cfg.DBUser, cfg.ConfigDBPath)

	if *reprovision {
		if !confirmReprovision(cfg) {
			fmt.Println("❌ Nothing dropped; exiting")
			os.Exit(0)
		}
		fmt.Println()
		if err := provision.DropExistingResources(cfg); err != nil {
			fatalf("Failed to drop existing resources: %v", err)
		}
		fmt.Println()
	}

	if err := ensurePreflight(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := provision.CreateDatabase(cfg); err != nil {
		fatalf("Failed to create database: %v", err)
	}
	if err := provision.EnableTimescaleDB(cfg); err != nil {
		fatalf("Failed to enable TimescaleDB: %v", err)
	}
	if err := provision.CreateUser(cfg); err != nil {
		fatalf("Failed to create user: %v", err)
	}

	provision.DisplayPasswordWarning(dbPassword)

	if err := provision.UpdateConfigDB(cfg); err != nil {
		fatalf("Failed to update config database: %v", err)
	}

	fmt.Println("🔍 Verifying the new credentials...")
	if err := provision.TestConnection(cfg); err != nil {
		fatalf("Connection test failed: %v", err)
	}
	fmt.Println("✅ Credentials verified")
	fmt.Println()

	printSuccess(cfg)
}

// ensurePreflight runs the pre-flight checks, repairing pg_hba.conf once when
// the failure is an authentication error.
func ensurePreflight(cfg *provision.Config) error {
	err := provision.PreflightChecks(cfg)
	if err == nil {
		return nil
	}
	if !provision.IsAuthError(err) {
		return err
	}
	if fixErr := provision.AutoFixPgHba(cfg); fixErr != nil {
		return fixErr
	}
	return provision.PreflightChecks(cfg)
}

func confirmReprovision(cfg *provision.Config) bool {
	fmt.Printf("%s%s⚠️  Reprovisioning is destructive%s\n", colorBold, colorBrightYellow, colorReset)
	fmt.Printf(`
Database %q and user %q will be dropped if they exist.
Everything stored in that database is gone for good.

`, cfg.DBName, cfg.DBUser)
	return promptDefault("Type 'yes' to drop them and continue: ", "") == "yes"
}

// promptDefault reads one line from stdin, returning the fallback when the
// user just presses enter.
func promptDefault(prompt, fallback string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return fallback
	}
	return input
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}

func printSuccess(cfg *provision.Config) {
	fmt.Println("✅ Provisioning complete")
	fmt.Printf(`
Connection details:
  host       %s:%d
  database   %s
  user       %s
  ssl mode   %s
  extension  timescaledb

`, cfg.PostgresHost, cfg.PostgresPort, cfg.DBName, cfg.DBUser, cfg.SSLMode)
	fmt.Printf("%s%sNext:%s start the daemon against the updated config database:\n", colorBold, colorBrightYellow, colorReset)
	fmt.Printf("  %s%sremoteclimate -config %s -config-backend sqlite%s\n", colorBold, colorBrightCyan, cfg.ConfigDBPath, colorReset)
	fmt.Println()
	fmt.Println("On startup the daemon creates the observations hypertable, the CO2")
	fmt.Println("tables, the continuous aggregates, and the retention policies itself.")
	fmt.Printf(`
Direct psql access:
  %spsql -h %s -p %d -U %s -d %s%s

`, colorBrightCyan, cfg.PostgresHost, cfg.PostgresPort, cfg.DBUser, cfg.DBName, colorReset)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configDB := fs.String("config-db", DefaultConfigDB, "Path to remoteclimate config.db")
	fs.Parse(args)

	cfg, err := provision.GetStorageConfig(*configDB)
	if err != nil {
		fatalf("Failed to read configuration: %v", err)
	}

	fmt.Printf(`📊 Storage settings in %s

  host      %s:%d
  database  %s
  user      %s
  ssl mode  %s
  timezone  %s

`, *configDB, cfg.PostgresHost, cfg.PostgresPort, cfg.DBName, cfg.DBUser, cfg.SSLMode, cfg.Timezone)
}

func runTest(args []string) {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	configDB := fs.String("config-db", DefaultConfigDB, "Path to remoteclimate config.db")
	fs.Parse(args)

	cfg, err := provision.GetStorageConfig(*configDB)
	if err != nil {
		fatalf("Failed to read configuration: %v", err)
	}

	fmt.Printf("🔍 Connecting to %s:%d/%s as %s...\n", cfg.PostgresHost, cfg.PostgresPort, cfg.DBName, cfg.DBUser)

	if err := provision.TestConnection(cfg); err != nil {
		fatalf("Connection test failed: %v", err)
	}

	fmt.Println("✅ Connected; TimescaleDB is enabled and the user can create tables")
}
