package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// restorableTables lists the tables climate-export produces that can be
// loaded back with COPY. Snapshot rows are excluded because their ids come
// from a sequence.
var restorableTables = map[string]bool{
	"observations": true,
	"co2_monthly":  true,
}

type Config struct {
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
	SSLMode   string
	Table     string
	CSVFile   string
	BatchSize int
	Truncate  bool
}

func (c Config) dsn() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode)
}

func main() {
	var cfg Config

	flag.StringVar(&cfg.Host, "host", "localhost", "database host")
	flag.IntVar(&cfg.Port, "port", 5432, "database port")
	flag.StringVar(&cfg.Database, "database", "climate", "database name")
	flag.StringVar(&cfg.User, "user", "postgres", "database user")
	flag.StringVar(&cfg.Password, "password", "", "database password")
	flag.StringVar(&cfg.SSLMode, "sslmode", "disable", "sslmode setting for the connection")
	flag.StringVar(&cfg.Table, "table", "observations", "table to restore into: observations or co2_monthly")
	flag.StringVar(&cfg.CSVFile, "file", "", "CSV file to load (required)")
	flag.IntVar(&cfg.BatchSize, "batch", 1000, "rows per COPY batch")
	flag.BoolVar(&cfg.Truncate, "truncate", false, "truncate the table first")
	flag.Parse()

	if cfg.CSVFile == "" {
		log.Fatal("the -file flag is required")
	}
	if !restorableTables[cfg.Table] {
		log.Fatalf("cannot restore into %q; only observations and co2_monthly", cfg.Table)
	}

	ctx := context.Background()
	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	file, err := os.Open(cfg.CSVFile)
	if err != nil {
		log.Fatalf("opening CSV file: %v", err)
	}
	defer file.Close()

	// File size drives the progress percentage
	fileInfo, err := file.Stat()
	if err != nil {
		log.Fatalf("stat on CSV file: %v", err)
	}
	progress := &progressReader{reader: file, total: fileInfo.Size()}
	csvReader := csv.NewReader(progress)

	headers, err := csvReader.Read()
	if err != nil {
		log.Fatalf("reading CSV header row: %v", err)
	}
	log.Printf("CSV has %d columns: %v", len(headers), headers)

	plan, err := buildColumnPlan(ctx, pool, cfg.Table, headers)
	if err != nil {
		log.Fatalf("matching CSV columns against %s: %v", cfg.Table, err)
	}
	if len(plan.skipped) > 0 {
		log.Printf("WARNING: skipping CSV columns with no match in %s: %v", cfg.Table, plan.skipped)
	}
	log.Printf("Loading %d columns: %v", len(plan.columns), plan.columns)

	count, err := restoreData(ctx, pool, csvReader, cfg, plan, progress)
	if err != nil {
		log.Fatalf("restore failed: %v", err)
	}

	log.Printf("Restored %d rows into %s", count, cfg.Table)
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

// columnPlan maps the CSV columns onto the target table: which columns load,
// where each sits in a CSV record, and how its text converts.
type columnPlan struct {
	columns []string
	indices []int    // CSV record index per column
	types   []string // information_schema data type per column
	skipped []string
}

func buildColumnPlan(ctx context.Context, pool *pgxpool.Pool, table string, headers []string) (*columnPlan, error) {
	rows, err := pool.Query(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("querying table schema: %w", err)
	}
	defer rows.Close()

	columnTypes := make(map[string]string)
	for rows.Next() {
		var column, dataType string
		if err := rows.Scan(&column, &dataType); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		columnTypes[column] = dataType
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columnTypes) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", table)
	}

	plan := &columnPlan{}
	for i, header := range headers {
		dataType, ok := columnTypes[header]
		if !ok {
			plan.skipped = append(plan.skipped, header)
			continue
		}
		plan.columns = append(plan.columns, header)
		plan.indices = append(plan.indices, i)
		plan.types = append(plan.types, dataType)
	}
	if len(plan.columns) == 0 {
		return nil, fmt.Errorf("no CSV column matches the table schema")
	}
	return plan, nil
}

// convert turns one CSV record into a COPY row, converting each cell to the
// Go type pgx expects for its column. Empty cells and unparseable numbers
// load as NULL.
func (p *columnPlan) convert(record []string) ([]any, error) {
	row := make([]any, len(p.columns))
	for i, csvIndex := range p.indices {
		if csvIndex >= len(record) || record[csvIndex] == "" {
			continue
		}
		value := record[csvIndex]

		switch p.types[i] {
		case "timestamp with time zone", "timestamp without time zone":
			parsed, err := parseTimestamp(value)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", p.columns[i], err)
			}
			row[i] = parsed
		case "integer", "bigint", "smallint":
			if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
				row[i] = intVal
			}
		case "numeric", "real", "double precision":
			if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
				row[i] = floatVal
			}
		case "boolean":
			row[i] = value == "true" || value == "t" || value == "1"
		default:
			// Text, varchar and friends load as-is
			row[i] = value
		}
	}
	return row, nil
}

// parseTimestamp parses the timestamp renderings climate-export emits
func parseTimestamp(value string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999 -0700 MST",
		"2006-01-02 15:04:05.999999 -0700",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// restoreData streams the CSV into the table with COPY, one transaction for
// the whole file.
func restoreData(ctx context.Context, pool *pgxpool.Pool, reader *csv.Reader, cfg Config, plan *columnPlan, progress *progressReader) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if cfg.Truncate {
		if _, err := tx.Exec(ctx, "TRUNCATE "+cfg.Table); err != nil {
			return 0, fmt.Errorf("truncating %s: %w", cfg.Table, err)
		}
		log.Printf("Truncated %s", cfg.Table)
	}

	batch := make([][]any, 0, cfg.BatchSize)
	rowCount := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{cfg.Table}, plan.columns, pgx.CopyFromRows(batch))
		if err != nil {
			return fmt.Errorf("copying batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rowCount, fmt.Errorf("reading CSV record: %w", err)
		}

		row, err := plan.convert(record)
		if err != nil {
			return rowCount, err
		}
		batch = append(batch, row)
		rowCount++

		if len(batch) >= cfg.BatchSize {
			if err := flush(); err != nil {
				return rowCount, err
			}
			log.Printf("Loaded %d rows (%.1f%%)", rowCount, progress.percent())
		}
	}
	if err := flush(); err != nil {
		return rowCount, err
	}

	if err := tx.Commit(ctx); err != nil {
		return rowCount, fmt.Errorf("committing transaction: %w", err)
	}
	return rowCount, nil
}

// progressReader counts bytes as the CSV reader pulls them through, so
// progress can be reported against the file size.
type progressReader struct {
	reader io.Reader
	total  int64
	read   int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)
	return n, err
}

func (pr *progressReader) percent() float64 {
	if pr.total == 0 {
		return 0
	}
	return float64(pr.read) / float64(pr.total) * 100
}
