package query

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the SQL differences between the supported backends:
// identifier quoting, placeholder syntax and how arguments are bound.
type Dialect struct {
	// Name is the dialect name, also used in logs.
	Name string

	openQuote, closeQuote string

	// named dialects bind sql.Named arguments to "@Name" placeholders;
	// the others use positional "$n" placeholders.
	named bool

	// timeLayout, when set, binds time.Time arguments as UTC text in this
	// layout, matching what datetime() yields for stored values.
	timeLayout string
}

var (
	// SQLServer targets Microsoft SQL Server through go-mssqldb.
	SQLServer = Dialect{
		Name:       "sqlserver",
		openQuote:  "[",
		closeQuote: "]",
		named:      true,
	}

	// Postgres targets PostgreSQL through lib/pq or pgx.
	Postgres = Dialect{
		Name:       "postgres",
		openQuote:  `"`,
		closeQuote: `"`,
	}

	// SQLite targets modernc.org/sqlite. Dates are usually stored as ISO-8601
	// text, so time arguments are bound as text that sorts the same way.
	SQLite = Dialect{
		Name:       "sqlite",
		openQuote:  `"`,
		closeQuote: `"`,
		named:      true,
		timeLayout: "2006-01-02 15:04:05",
	}
)

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("no SQL dialect for driver %q", driver)
	}
}

// QuoteIdent quotes a single identifier, doubling any embedded closing quote.
func (d Dialect) QuoteIdent(name string) string {
	return d.openQuote + strings.ReplaceAll(name, d.closeQuote, d.closeQuote+d.closeQuote) + d.closeQuote
}

// QuoteTable quotes a possibly schema-qualified table name ("dbo.Cold_Storage").
func (d Dialect) QuoteTable(name string) string {
	schema, table := SplitTable(name)
	if schema == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

// SplitTable separates an optional schema prefix from a table name.
func SplitTable(name string) (schema, table string) {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Placeholder returns the placeholder for the parameter called name at
// 1-based position pos.
func (d Dialect) Placeholder(name string, pos int) string {
	if d.named {
		return "@" + name
	}
	return "$" + strconv.Itoa(pos)
}

// Arg shapes a parameter value for the driver.
func (d Dialect) Arg(name string, value any) any {
	if t, ok := value.(time.Time); ok && d.timeLayout != "" {
		value = t.UTC().Format(d.timeLayout)
	}
	if d.named {
		return sql.Named(name, value)
	}
	return value
}

// DateExpr wraps a date expression so that comparisons behave as dates.
// SQLite stores dates as text in varying precision; datetime() normalizes
// them to the layout used for bound arguments.
func (d Dialect) DateExpr(expr string) string {
	if d.timeLayout != "" {
		return "datetime(" + expr + ")"
	}
	return expr
}
