// Command probe checks a column mapping against the live survey table. It
// lists the table's columns, reports mapped columns that are missing, then
// runs the unfiltered report query and summarizes which fields fell back to
// defaults.
//
// Usage:
//
//	DB_DRIVER=sqlserver DB_DSN="sqlserver://..." go run ./cmd/probe \
//	  -table dbo.Cold_Storage \
//	  -columns deploy/columns.yaml \
//	  -variant registry
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/coldstorage-report/internal/adapter/sqlstore"
	"github.com/couchcryptid/coldstorage-report/internal/domain"
	"github.com/couchcryptid/coldstorage-report/internal/query"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// phase tracks pass/fail for a probe phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	driver := flag.String("driver", sharedcfg.EnvOrDefault("DB_DRIVER", "sqlserver"), "database/sql driver")
	dsn := flag.String("dsn", os.Getenv("DB_DSN"), "data source name")
	table := flag.String("table", sharedcfg.EnvOrDefault("SOURCE_TABLE", query.DefaultTable), "source table, optionally schema-qualified")
	columns := flag.String("columns", os.Getenv("COLUMN_MAP_FILE"), "YAML column map (empty for the built-in mapping)")
	variant := flag.String("variant", sharedcfg.EnvOrDefault("SCHEMA_VARIANT", string(domain.VariantRegistry)), "schema variant: registry or utilization")
	timeout := flag.Duration("timeout", 30*time.Second, "overall probe timeout")
	flag.Parse()

	if *dsn == "" {
		flag.Usage()
		os.Exit(1)
	}

	v, err := domain.ParseVariant(*variant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	base := query.DefaultSchema()
	base.Table = *table
	schema, err := query.LoadSchema(*columns, base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: *driver, DSN: *dsn, MaxOpenConns: 1}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if code := run(ctx, os.Stdout, store, schema, v); code != 0 {
		store.Close()
		os.Exit(code)
	}
}

func run(ctx context.Context, out io.Writer, store *sqlstore.Store, schema query.Schema, variant domain.Variant) int {
	fmt.Fprintln(out, "=== Cold Storage Column Probe ===")
	fmt.Fprintf(out, "Table: %s (%s, %s variant)\n\n", schema.Table, store.Dialect().Name, variant)

	live, err := store.Columns(ctx, schema.Table)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	mapping := checkMapping(schema.Mapped(), live)
	decode := checkDecode(ctx, store, schema, variant)
	phases := []*phase{mapping, decode}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintf(out, "\nColumns: %d in table, %d mapped\n", len(live), len(schema.Mapped()))

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(out, "  note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nProbe passed.")
		return 0
	}
	fmt.Fprintln(out, "\nProbe FAILED.")
	return 1
}

// checkMapping reports mapped columns that the table does not have. A column
// that only differs by case is a note: SQL Server's default collation
// resolves it anyway.
func checkMapping(mapped map[string]string, live []string) *phase {
	p := &phase{name: "Column mapping"}
	if len(live) == 0 {
		p.errorf("table has no columns or does not exist")
		return p
	}

	exact := make(map[string]bool, len(live))
	folded := make(map[string]string, len(live))
	for _, c := range live {
		exact[c] = true
		folded[strings.ToLower(c)] = c
	}

	fields := make([]string, 0, len(mapped))
	for f := range mapped {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	for _, f := range fields {
		col := mapped[f]
		if exact[col] {
			continue
		}
		if actual, ok := folded[strings.ToLower(col)]; ok {
			p.notef("%s: column %q matches %q only ignoring case", f, col, actual)
			continue
		}
		p.errorf("%s: column %q not found", f, col)
	}
	return p
}

// checkDecode runs the unfiltered report query and summarizes the fields that
// fell back to defaults. Only a failing query fails the phase.
func checkDecode(ctx context.Context, store *sqlstore.Store, schema query.Schema, variant domain.Variant) *phase {
	p := &phase{name: "Report decode"}

	q := query.NewBuilder(store.Dialect(), schema, variant).Build(domain.FilterCriteria{})
	cur, err := store.Query(ctx, q)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	defer cur.Close()

	res, err := domain.Aggregate(cur, variant)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	p.notef("%d rows, %d states, %d cities", len(res.Records), len(res.Facets.States), len(res.Facets.Cities))
	for _, line := range summarizeDefaults(res.Stats, len(res.Records)) {
		p.notef("%s", line)
	}
	return p
}

// summarizeDefaults renders one line per defaulted field and reason, sorted
// by field then reason.
func summarizeDefaults(stats domain.DecodeStats, rows int) []string {
	keys := make([]domain.DefaultKey, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b domain.DefaultKey) int {
		if c := strings.Compare(string(a.Field), string(b.Field)); c != 0 {
			return c
		}
		return int(a.Reason) - int(b.Reason)
	})

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s defaulted on %d/%d rows (%s)", k.Field, stats[k], rows, k.Reason)
	}
	return lines
}
