// Command seed loads a CSV export of the cold storage survey into a SQLite
// database so the service and probe can run locally without SQL Server. The
// CSV header becomes the column list, so question-text column names carry
// over unchanged. Every column is created with TEXT affinity except those
// listed in -numeric, which get REAL affinity.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -csv data/mock/cold_storage.csv \
//	  -db data/mock/coldstorage.db \
//	  -numeric "Latitude,Longitude"
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/couchcryptid/coldstorage-report/internal/query"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "survey CSV export with a header row")
	dbPath := flag.String("db", "", "SQLite database file to create or replace the table in")
	table := flag.String("table", query.DefaultTable, "table name")
	numeric := flag.String("numeric", "Latitude,Longitude", "comma-separated columns stored as REAL")
	flag.Parse()

	if *csvPath == "" || *dbPath == "" {
		flag.Usage()
		return errors.New("missing required flags: -csv, -db")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	db, err := sqlx.Open("sqlite", *dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	n, err := load(db, f, *table, splitList(*numeric))
	if err != nil {
		return err
	}
	log.Printf("loaded %d rows into %s (%s)", n, *table, *dbPath)
	return nil
}

// load replaces table with the contents of the CSV read from r. Blank cells
// are stored as NULL.
func load(db *sqlx.DB, r io.Reader, table string, numeric []string) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 1 {
		return 0, errors.New("csv has no header row")
	}
	header := rows[0]

	isNumeric := make(map[string]bool, len(numeric))
	for _, c := range numeric {
		isNumeric[c] = true
	}

	d := query.SQLite
	defs := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		affinity := "TEXT"
		if isNumeric[h] {
			affinity = "REAL"
		}
		defs[i] = d.QuoteIdent(h) + " " + affinity
		marks[i] = "?"
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + d.QuoteTable(table)); err != nil {
		return 0, fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.Exec("CREATE TABLE " + d.QuoteTable(table) + " (" + strings.Join(defs, ", ") + ")"); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	insert := "INSERT INTO " + d.QuoteTable(table) + " VALUES (" + strings.Join(marks, ", ") + ")"
	for i, row := range rows[1:] {
		args := make([]any, len(header))
		for j := range header {
			if j < len(row) && strings.TrimSpace(row[j]) != "" {
				args[j] = row[j]
			}
		}
		if _, err := tx.Exec(insert, args...); err != nil {
			return 0, fmt.Errorf("insert line %d: %w", i+2, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows) - 1, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
