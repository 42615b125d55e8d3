package config

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBDriver         string
	DBDSN            string
	DBMaxOpenConns   int
	DBConnMaxLife    time.Duration
	DBConnectTimeout time.Duration
	QueryTimeout     time.Duration

	SourceTable   string
	SchemaVariant domain.Variant
	ColumnMapFile string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

var drivers = []string{"sqlserver", "postgres", "pgx", "sqlite"}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	queryTimeout, err := parsePositiveDuration("QUERY_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	connectTimeout, err := parsePositiveDuration("DB_CONNECT_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	connMaxLife, err := parsePositiveDuration("DB_CONN_MAX_LIFETIME", "30m")
	if err != nil {
		return nil, err
	}

	maxOpen, err := strconv.Atoi(sharedcfg.EnvOrDefault("DB_MAX_OPEN_CONNS", "10"))
	if err != nil || maxOpen < 1 {
		return nil, errors.New("invalid DB_MAX_OPEN_CONNS: must be a positive integer")
	}

	variant, err := domain.ParseVariant(sharedcfg.EnvOrDefault("SCHEMA_VARIANT", string(domain.VariantRegistry)))
	if err != nil {
		return nil, errors.New("invalid SCHEMA_VARIANT: " + err.Error())
	}

	cfg := &Config{
		DBDriver:         strings.ToLower(sharedcfg.EnvOrDefault("DB_DRIVER", "sqlserver")),
		DBDSN:            os.Getenv("DB_DSN"),
		DBMaxOpenConns:   maxOpen,
		DBConnMaxLife:    connMaxLife,
		DBConnectTimeout: connectTimeout,
		QueryTimeout:     queryTimeout,
		SourceTable:      sharedcfg.EnvOrDefault("SOURCE_TABLE", "Cold_Storage"),
		SchemaVariant:    variant,
		ColumnMapFile:    os.Getenv("COLUMN_MAP_FILE"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if !slices.Contains(drivers, cfg.DBDriver) {
		return nil, errors.New("invalid DB_DRIVER: must be one of " + strings.Join(drivers, ", "))
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key + ": must be a positive duration")
	}
	return d, nil
}
