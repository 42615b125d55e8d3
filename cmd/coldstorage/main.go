package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/coldstorage-report/internal/adapter/http"
	"github.com/couchcryptid/coldstorage-report/internal/adapter/sqlstore"
	"github.com/couchcryptid/coldstorage-report/internal/config"
	"github.com/couchcryptid/coldstorage-report/internal/observability"
	"github.com/couchcryptid/coldstorage-report/internal/query"
	"github.com/couchcryptid/coldstorage-report/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	base := query.DefaultSchema()
	base.Table = cfg.SourceTable
	schema, err := query.LoadSchema(cfg.ColumnMapFile, base)
	if err != nil {
		logger.Error("failed to load column map", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	builder := query.NewBuilder(store.Dialect(), schema, cfg.SchemaVariant)
	svc := report.New(store, builder, logger, metrics, cfg.QueryTimeout)
	logger.Info("report configured", "table", schema.Table, "variant", cfg.SchemaVariant, "query_timeout", cfg.QueryTimeout)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// connect opens the database, retrying with backoff until DB_CONNECT_TIMEOUT
// elapses. Only startup is retried; report queries fail fast.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()

	storeCfg := sqlstore.Config{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	}

	backoff := 500 * time.Millisecond
	for {
		store, err := sqlstore.Open(ctx, storeCfg, logger)
		if err == nil {
			return store, nil
		}
		logger.Warn("database not reachable, retrying", "error", err, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, err
		}
		backoff = retry.NextBackoff(backoff, 5*time.Second)
	}
}
