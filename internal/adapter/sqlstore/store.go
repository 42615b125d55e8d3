// Package sqlstore runs report queries against the survey table through
// database/sql. SQL Server, PostgreSQL (lib/pq or pgx) and SQLite drivers
// are registered.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
	"github.com/couchcryptid/coldstorage-report/internal/query"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Config holds connection settings.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Store is a read-only handle on the source database.
type Store struct {
	db      *sqlx.DB
	dialect query.Dialect
	logger  *slog.Logger
}

// Open connects to the database and verifies it with a ping.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sqlstore: DSN is required")
	}
	dialect, err := query.DialectFor(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: %w", err)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", cfg.Driver, err)
	}

	logger.Info("database connected", "driver", cfg.Driver, "dialect", dialect.Name)
	return &Store{db: db, dialect: dialect, logger: logger}, nil
}

// Dialect returns the SQL dialect of the connected database.
func (s *Store) Dialect() query.Dialect { return s.dialect }

// Query executes q and returns a cursor over its rows. The caller must close
// the cursor.
func (s *Store) Query(ctx context.Context, q query.Query) (domain.Cursor, error) {
	s.logger.Debug("executing report query", "predicates", len(q.Predicates))

	rows, err := s.db.QueryxContext(ctx, q.Text, q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query: %w", err)
	}
	cur, err := newCursor(rows)
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return cur, nil
}

// Columns lists the columns of table in ordinal order. An unknown table
// yields an empty list.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	q := s.dialect.ColumnsQuery(table)
	cols := []string{}
	if err := s.db.SelectContext(ctx, &cols, q.Text, q.Args()...); err != nil {
		return nil, fmt.Errorf("sqlstore: list columns of %s: %w", table, err)
	}
	return cols, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlstore: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
