package provision

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// passwordRule is the pg_hba.conf line the provisioner adds. It has to sit
// above the distribution's peer rule to take precedence.
const passwordRule = "local   all             all                                     scram-sha-256"

// Fallback locations checked when the server cannot tell us where its
// hba_file lives.
var hbaSearchPaths = []string{
	"/etc/postgresql/16/main/pg_hba.conf",
	"/etc/postgresql/15/main/pg_hba.conf",
	"/etc/postgresql/14/main/pg_hba.conf",
	"/etc/postgresql/13/main/pg_hba.conf",
	"/var/lib/pgsql/data/pg_hba.conf",
	"/var/lib/pgsql/16/data/pg_hba.conf",
	"/var/lib/pgsql/15/data/pg_hba.conf",
	"/var/lib/pgsql/14/data/pg_hba.conf",
	"/var/lib/postgres/data/pg_hba.conf",
}

// Service names tried for a reload, covering Debian and RHEL layouts.
var postgresServices = []string{
	"postgresql",
	"postgresql@16-main",
	"postgresql@15-main",
	"postgresql@14-main",
	"postgresql-16",
	"postgresql-15",
	"postgresql-14",
}

// IsAuthError reports whether err looks like a pg_hba.conf or password
// problem rather than an unreachable server.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, needle := range []string{
		"authentication failed",
		"no pg_hba.conf entry",
		"password authentication failed",
		"FATAL",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// AutoFixPgHba walks the operator through enabling local password
// authentication: locate pg_hba.conf, back it up, insert the password rule,
// reload PostgreSQL and re-test the connection.
func AutoFixPgHba(cfg *Config) error {
	if !confirmAutoFix() {
		return fmt.Errorf("auto-fix declined.\n\n"+
			"To enable password logins yourself, add this line to pg_hba.conf\n"+
			"above the peer rule and reload PostgreSQL:\n\n  %s", passwordRule)
	}

	fmt.Println()
	fmt.Println("🔍 Locating pg_hba.conf...")
	hbaPath, err := locateHbaFile(cfg)
	if err != nil {
		return fmt.Errorf("unable to locate pg_hba.conf: %w", err)
	}
	fmt.Printf("✅ pg_hba.conf: %s\n", hbaPath)

	fmt.Println()
	fmt.Printf("About to edit %s to let any Unix user connect with a password.\n", hbaPath)
	if !confirm("Proceed? [y/N]: ") {
		return fmt.Errorf("cancelled before modifying pg_hba.conf")
	}

	fmt.Println()
	fmt.Println("💾 Backing up the current file...")
	backupPath, err := backupHbaFile(hbaPath)
	if err != nil {
		return fmt.Errorf("failed to back up pg_hba.conf: %w", err)
	}
	fmt.Printf("✅ Backup: %s\n", backupPath)

	fmt.Println("✏️  Inserting password rule...")
	if err := insertPasswordRule(hbaPath); err != nil {
		return fmt.Errorf("editing pg_hba.conf failed: %w (backup at %s)", err, backupPath)
	}
	fmt.Println("✅ Rule inserted")

	fmt.Println("🔄 Reloading PostgreSQL...")
	if err := reloadPostgreSQL(cfg); err != nil {
		return fmt.Errorf("reload failed: %w (backup at %s)\n"+
			"Reload manually with: systemctl reload postgresql", err, backupPath)
	}

	fmt.Println("⏳ Giving the server a moment to apply it...")
	time.Sleep(2 * time.Second)

	fmt.Println("🔍 Re-testing the connection...")
	if err := checkPostgreSQLConnection(cfg); err != nil {
		return fmt.Errorf("connection still failing after the fix: %w\n"+
			"pg_hba.conf was modified (backup at %s); check the PostgreSQL logs", err, backupPath)
	}
	fmt.Println("✅ Password authentication is working")
	fmt.Println()

	return nil
}

func confirmAutoFix() bool {
	fmt.Println()
	fmt.Printf("%s%s⚠️  PostgreSQL is refusing password logins%s\n", ColorBold, ColorBrightYellow, ColorReset)
	fmt.Printf("%s------------------------------------------%s\n", ColorBrightYellow, ColorReset)
	for _, line := range []string{
		"",
		"Connecting to PostgreSQL failed because pg_hba.conf does not allow",
		"password logins over the local socket.",
		"",
		"The auto-fix will:",
		"",
		"  1. locate pg_hba.conf (asking the server first)",
		"  2. save a timestamped backup next to it",
		"  3. insert this rule ahead of the distribution's peer rule:",
		"",
	} {
		fmt.Println(line)
	}
	fmt.Printf("     %s%s%s%s\n", ColorBold, ColorBrightCyan, passwordRule, ColorReset)
	for _, line := range []string{
		"",
		"  4. reload PostgreSQL",
		"",
		"Afterwards any Unix user with the password can connect to any local",
		"database. The backup lets you restore the previous rules at any time.",
		"",
	} {
		fmt.Println(line)
	}
	return confirm("Apply this fix now? [y/N]: ")
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	response, _ := reader.ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// locateHbaFile asks the server for its hba_file setting, falling back to
// scanning distribution paths when the query cannot run.
func locateHbaFile(cfg *Config) (string, error) {
	if db, err := openAdmin(cfg, "postgres"); err == nil {
		defer db.Close()
		var hbaPath string
		if err := db.QueryRow("SELECT setting FROM pg_settings WHERE name = 'hba_file'").Scan(&hbaPath); err == nil {
			return hbaPath, nil
		}
	}

	for _, path := range hbaSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("pg_hba.conf not found in any known location")
}

// backupHbaFile copies pg_hba.conf next to itself with a timestamped suffix
func backupHbaFile(hbaPath string) (string, error) {
	content, err := os.ReadFile(hbaPath)
	if err != nil {
		return "", err
	}

	backupPath := fmt.Sprintf("%s.provisioner-backup.%s", hbaPath, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backupPath, content, 0o640); err != nil {
		return "", err
	}
	return backupPath, nil
}

// hasPasswordRule reports whether a local scram-sha-256 rule is already in
// effect.
func hasPasswordRule(lines []string) bool {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "local") &&
			strings.Contains(trimmed, "all") &&
			strings.Contains(trimmed, "scram-sha-256") {
			return true
		}
	}
	return false
}

// insertPasswordRule adds the password rule above the first local rule so it
// wins over the distribution's peer rule. The file is swapped in atomically
// through a sibling temp file.
func insertPasswordRule(hbaPath string) error {
	content, err := os.ReadFile(hbaPath)
	if err != nil {
		return fmt.Errorf("reading pg_hba.conf: %w", err)
	}
	lines := strings.Split(string(content), "\n")

	if hasPasswordRule(lines) {
		fmt.Println("ℹ️  pg_hba.conf already has a local password rule; leaving it alone")
		return nil
	}

	var out []string
	inserted := false
	for _, line := range lines {
		if !inserted && strings.HasPrefix(strings.TrimSpace(line), "local") {
			out = append(out,
				"# Allow any Unix user to connect with password (provisioner-added)",
				passwordRule,
				"")
			inserted = true
		}
		out = append(out, line)
	}
	if !inserted {
		out = append(out,
			"",
			"# Allow any Unix user to connect with password (provisioner-added)",
			passwordRule)
	}

	// A sibling temp file keeps the rename on the same filesystem
	tmpPath := filepath.Join(filepath.Dir(hbaPath), ".pg_hba.conf.provisioner")
	if err := os.WriteFile(tmpPath, []byte(strings.Join(out, "\n")), 0o640); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, hbaPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing pg_hba.conf: %w", err)
	}

	fmt.Println("ℹ️  Inserted the password rule ahead of the existing local rules")
	return nil
}

// reloadPostgreSQL asks the server to reload via SQL, falling back to the
// distribution's systemctl service names.
func reloadPostgreSQL(cfg *Config) error {
	if db, err := openAdmin(cfg, "postgres"); err == nil {
		defer db.Close()
		if _, err := db.Exec("SELECT pg_reload_conf()"); err == nil {
			fmt.Println("✅ Reloaded via pg_reload_conf()")
			return nil
		}
	}

	for _, service := range postgresServices {
		if exec.Command("systemctl", "reload", service).Run() == nil {
			fmt.Printf("✅ systemctl reload %s succeeded\n", service)
			return nil
		}
	}
	return fmt.Errorf("no reload method worked; reload PostgreSQL manually")
}
