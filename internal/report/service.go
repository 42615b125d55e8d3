// Package report runs one report pass per request: build the filtered query,
// execute it, decode the rows and derive the facets.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
	"github.com/couchcryptid/coldstorage-report/internal/observability"
	"github.com/couchcryptid/coldstorage-report/internal/query"
)

// Store executes report queries.
type Store interface {
	Query(ctx context.Context, q query.Query) (domain.Cursor, error)
	Ping(ctx context.Context) error
}

// QueryBuilder turns filter criteria into a report query.
type QueryBuilder interface {
	Build(criteria domain.FilterCriteria) query.Query
	Variant() domain.Variant
}

// Service generates reports. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	store   Store
	builder QueryBuilder
	logger  *slog.Logger
	metrics *observability.Metrics
	timeout time.Duration
}

// New creates a Service. A zero timeout leaves the storage round-trip bounded
// only by the caller's context.
func New(store Store, builder QueryBuilder, logger *slog.Logger, metrics *observability.Metrics, timeout time.Duration) *Service {
	return &Service{
		store:   store,
		builder: builder,
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
	}
}

// Variant returns the schema variant reports are projected in.
func (s *Service) Variant() domain.Variant { return s.builder.Variant() }

// CheckReadiness reports whether the source database is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Generate runs one report pass. Only storage failures are returned; values
// that cannot be decoded fall back to field defaults.
func (s *Service) Generate(ctx context.Context, criteria domain.FilterCriteria) (domain.Report, error) {
	start := time.Now()
	criteria = criteria.Normalize()
	variant := s.builder.Variant()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	q := s.builder.Build(criteria)
	s.logger.Debug("report query built", "predicates", len(q.Predicates), "variant", variant)

	res, err := s.run(ctx, q, variant)
	if err != nil {
		s.metrics.ReportRequests.WithLabelValues("error").Inc()
		return domain.Report{}, err
	}

	s.record(res)
	elapsed := time.Since(start)
	s.metrics.ReportDuration.Observe(elapsed.Seconds())
	s.metrics.ReportRequests.WithLabelValues("success").Inc()
	s.logger.Info("report generated",
		"rows", len(res.Records),
		"states", len(res.Facets.States),
		"cities", len(res.Facets.Cities),
		"defaulted_fields", res.Stats.Total(),
		"duration", elapsed,
	)

	return domain.Report{
		Criteria:    criteria,
		Variant:     variant,
		Records:     res.Records,
		Facets:      res.Facets,
		GeneratedAt: domain.Now(),
	}, nil
}

func (s *Service) run(ctx context.Context, q query.Query, variant domain.Variant) (domain.AggregateResult, error) {
	cur, err := s.store.Query(ctx, q)
	if err != nil {
		return domain.AggregateResult{}, fmt.Errorf("query source table: %w", err)
	}
	defer func() {
		if err := cur.Close(); err != nil {
			s.logger.Warn("close result set failed", "error", err)
		}
	}()

	res, err := domain.Aggregate(cur, variant)
	if err != nil {
		return domain.AggregateResult{}, fmt.Errorf("aggregate report rows: %w", err)
	}
	return res, nil
}

func (s *Service) record(res domain.AggregateResult) {
	s.metrics.ReportRows.Add(float64(len(res.Records)))
	s.metrics.FacetValues.WithLabelValues("state").Set(float64(len(res.Facets.States)))
	s.metrics.FacetValues.WithLabelValues("city").Set(float64(len(res.Facets.Cities)))

	for key, n := range res.Stats {
		s.metrics.FieldDefaults.WithLabelValues(string(key.Field), key.Reason.String()).Add(float64(n))
		s.logger.Debug("field defaulted", "field", key.Field, "reason", key.Reason.String(), "count", n)
	}
}
