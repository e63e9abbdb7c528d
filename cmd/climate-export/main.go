package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatSQL  ExportFormat = "sql"
)

// orderColumns maps each exportable table to its natural sort column
var orderColumns = map[string]string{
	"observations":  "time",
	"co2_monthly":   "decimal_date",
	"co2_snapshots": "id",
}

type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	Table    string
	Format   ExportFormat
	Output   string
	Query    string
}

func (c Config) dsn() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode)
}

// rowWriter serializes query rows into one output format. begin receives the
// column order of the result set; end runs after the last row.
type rowWriter interface {
	begin(columns []string) error
	row(columns []string, values map[string]any) error
	end() error
}

func main() {
	var cfg Config

	flag.StringVar(&cfg.Host, "host", "localhost", "database host")
	flag.IntVar(&cfg.Port, "port", 5432, "database port")
	flag.StringVar(&cfg.Database, "database", "climate", "database name")
	flag.StringVar(&cfg.User, "user", "postgres", "database user")
	flag.StringVar(&cfg.Password, "password", "", "database password")
	flag.StringVar(&cfg.SSLMode, "sslmode", "disable", "sslmode setting for the connection")
	flag.StringVar(&cfg.Table, "table", "observations", "table to export: observations, co2_monthly, or co2_snapshots")
	formatStr := flag.String("format", "csv", "output format: csv, json, or sql")
	flag.StringVar(&cfg.Output, "output", "", "output file base name (extension added automatically; defaults to the table name)")
	flag.StringVar(&cfg.Query, "query", "", "optional WHERE clause, e.g. \"time > '2024-01-01'\"")
	flag.Parse()

	switch ExportFormat(*formatStr) {
	case FormatCSV, FormatJSON, FormatSQL:
		cfg.Format = ExportFormat(*formatStr)
	default:
		log.Fatalf("unknown format %q; use csv, json, or sql", *formatStr)
	}

	orderColumn, ok := orderColumns[cfg.Table]
	if !ok {
		log.Fatalf("cannot export %q; only observations, co2_monthly, or co2_snapshots", cfg.Table)
	}
	if cfg.Output == "" {
		cfg.Output = cfg.Table
	}

	ctx := context.Background()
	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	// The WHERE clause applies to the count too so progress adds up to 100%
	query := "SELECT * FROM " + cfg.Table
	countQuery := "SELECT COUNT(*) FROM " + cfg.Table
	if cfg.Query != "" {
		query += " WHERE " + cfg.Query
		countQuery += " WHERE " + cfg.Query
	}
	query += " ORDER BY " + orderColumn

	var totalCount int64
	if err := pool.QueryRow(ctx, countQuery).Scan(&totalCount); err != nil {
		log.Fatalf("counting rows: %v", err)
	}
	log.Printf("Exporting %d rows from %s", totalCount, cfg.Table)

	outPath := cfg.Output + "." + string(cfg.Format)
	file, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("creating %s: %v", outPath, err)
	}
	defer file.Close()

	var writer rowWriter
	switch cfg.Format {
	case FormatCSV:
		writer = &csvRowWriter{w: csv.NewWriter(file)}
	case FormatJSON:
		writer = &jsonRowWriter{file: file}
	case FormatSQL:
		writer = &sqlRowWriter{file: file, table: cfg.Table, query: query}
	}

	count, err := exportRows(ctx, pool, query, writer, totalCount)
	if err != nil {
		log.Fatalf("%s export failed: %v", strings.ToUpper(string(cfg.Format)), err)
	}

	log.Printf("Wrote %d rows to %s", count, outPath)
}

// mustConnect opens a pool, verifies it with a ping, and exits on failure.
func mustConnect(ctx context.Context, cfg Config) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, cfg.dsn())
	if err != nil {
		log.Fatalf("connecting to %s:%d: %v", cfg.Host, cfg.Port, err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("pinging %s:%d: %v", cfg.Host, cfg.Port, err)
	}
	log.Printf("Connected to %s at %s:%d", cfg.Database, cfg.Host, cfg.Port)
	return pool
}

// exportRows runs the query and hands every row to the writer, logging
// progress at each percentage point.
func exportRows(ctx context.Context, pool *pgxpool.Pool, query string, writer rowWriter, totalCount int64) (int64, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}
	if err := writer.begin(columns); err != nil {
		return 0, err
	}

	var count int64
	lastProgress := -1
	for rows.Next() {
		values, err := pgx.RowToMap(rows)
		if err != nil {
			return count, fmt.Errorf("scanning row: %w", err)
		}
		if err := writer.row(columns, values); err != nil {
			return count, fmt.Errorf("writing record: %w", err)
		}

		count++
		if totalCount > 0 {
			progress := int(count * 100 / totalCount)
			if progress != lastProgress {
				log.Printf("Progress: %d%% (%d/%d rows)", progress, count, totalCount)
				lastProgress = progress
			}
		} else if count%10000 == 0 {
			log.Printf("Processed %d rows...", count)
		}
	}

	if err := rows.Err(); err != nil {
		return count, err
	}
	return count, writer.end()
}

type csvRowWriter struct {
	w *csv.Writer
}

func (c *csvRowWriter) begin(columns []string) error {
	return c.w.Write(columns)
}

func (c *csvRowWriter) row(columns []string, values map[string]any) error {
	record := make([]string, len(columns))
	for i, col := range columns {
		if val, ok := values[col]; ok && val != nil {
			record[i] = fmt.Sprintf("%v", val)
		}
	}
	return c.w.Write(record)
}

func (c *csvRowWriter) end() error {
	c.w.Flush()
	return c.w.Error()
}

type jsonRowWriter struct {
	file  *os.File
	enc   *json.Encoder
	wrote bool
}

func (j *jsonRowWriter) begin(columns []string) error {
	j.enc = json.NewEncoder(j.file)
	j.enc.SetIndent("  ", "  ")
	_, err := j.file.WriteString("[\n")
	return err
}

func (j *jsonRowWriter) row(columns []string, values map[string]any) error {
	// Comma between records
	if j.wrote {
		if _, err := j.file.WriteString(",\n"); err != nil {
			return err
		}
	}
	j.wrote = true
	if _, err := j.file.WriteString("  "); err != nil {
		return err
	}
	return j.enc.Encode(values)
}

func (j *jsonRowWriter) end() error {
	_, err := j.file.WriteString("\n]")
	return err
}

type sqlRowWriter struct {
	file  *os.File
	table string
	query string
}

func (s *sqlRowWriter) begin(columns []string) error {
	fmt.Fprintf(s.file, "-- Climate data export generated on %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(s.file, "-- Query: %s\n", s.query)
	fmt.Fprintln(s.file, "-- Columns are listed explicitly so a restore survives schema changes")
	fmt.Fprintln(s.file, "\nBEGIN;")
	fmt.Fprintln(s.file)
	return nil
}

func (s *sqlRowWriter) row(columns []string, values map[string]any) error {
	// Values follow the result-set column order so every INSERT lines up
	vals := make([]string, len(columns))
	for i, col := range columns {
		vals[i] = sqlLiteral(values[col])
	}
	_, err := fmt.Fprintf(s.file, "INSERT INTO %s (%s) VALUES (%s);\n",
		s.table, strings.Join(columns, ", "), strings.Join(vals, ", "))
	return err
}

func (s *sqlRowWriter) end() error {
	_, err := fmt.Fprintln(s.file, "\nCOMMIT;")
	return err
}

func sqlLiteral(val any) string {
	if val == nil {
		return "NULL"
	}
	switch v := val.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case time.Time:
		return "'" + v.Format(time.RFC3339) + "'"
	case bool:
		return fmt.Sprintf("%t", v)
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("'%v'", v)
	}
}
