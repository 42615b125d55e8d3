package sqlstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
	"github.com/couchcryptid/coldstorage-report/internal/query"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createTable = `CREATE TABLE "Cold_Storage" (
	"Survey ID" TEXT,
	"State" TEXT,
	"City" TEXT,
	"What is the actual capacity of your facility (in metric tonnes)?" REAL,
	"What is the total area of this facility (in sq# mt)" TEXT,
	"QC Status" TEXT,
	"QC Date" TEXT,
	"Observation Date" TEXT,
	"Latitude" REAL,
	"Longitude" REAL
)`

const insertRow = `INSERT INTO "Cold_Storage" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openSeeded creates a SQLite database file with the survey table and the
// given rows, then opens it through Open.
func openSeeded(t *testing.T, rows ...[]any) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "coldstorage.db")

	seed, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	seed.MustExec(createTable)
	for _, r := range rows {
		seed.MustExec(insertRow, r...)
	}
	require.NoError(t, seed.Close())

	s, err := Open(context.Background(), Config{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRows() [][]any {
	return [][]any{
		{"SV-1", "MH", "Pune", 1500.5, "820", "Approved", "2024-02-10", nil, 18.52, 73.85},
		{"SV-2", "MH", "Nagpur", 900.0, "400.25", "Pending", nil, "2024-03-15", 21.14, 79.08},
		{"SV-3", "UP", "Lucknow", 1200.0, "n/a", "Approved", "2024-05-01 08:30:00", nil, 26.84, 80.94},
	}
}

func aggregate(t *testing.T, s *Store, criteria domain.FilterCriteria) domain.AggregateResult {
	t.Helper()
	b := query.NewBuilder(s.Dialect(), query.DefaultSchema(), domain.VariantRegistry)

	cur, err := s.Query(context.Background(), b.Build(criteria))
	require.NoError(t, err)
	defer cur.Close()

	res, err := domain.Aggregate(cur, domain.VariantRegistry)
	require.NoError(t, err)
	return res
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Config{Driver: "sqlite"}, discardLogger())
	require.Error(t, err)

	_, err = Open(ctx, Config{Driver: "oracle", DSN: "x"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestOpen_AppliesPoolSettings(t *testing.T) {
	s, err := Open(context.Background(), Config{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "pool.db"),
		MaxOpenConns:    3,
		ConnMaxLifetime: time.Minute,
	}, discardLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 3, s.db.Stats().MaxOpenConnections)
	require.NoError(t, s.Ping(context.Background()))
}

func TestStore_QueryOrdersAndNumbersRows(t *testing.T) {
	s := openSeeded(t, sampleRows()...)

	res := aggregate(t, s, domain.FilterCriteria{})

	require.Len(t, res.Records, 3)
	got := make([]string, len(res.Records))
	for i, r := range res.Records {
		got[i] = r.State + "/" + r.City
		assert.Equal(t, int64(i+1), r.ID)
	}
	assert.Equal(t, []string{"MH/Nagpur", "MH/Pune", "UP/Lucknow"}, got)
	assert.Equal(t, []string{"MH", "UP"}, res.Facets.States)
	assert.Equal(t, []string{"Lucknow", "Nagpur", "Pune"}, res.Facets.Cities)
}

func TestStore_QueryDecodesDriverValues(t *testing.T) {
	s := openSeeded(t, sampleRows()...)

	res := aggregate(t, s, domain.FilterCriteria{})
	nagpur, pune, lucknow := res.Records[0], res.Records[1], res.Records[2]

	assert.Equal(t, "SV-1", pune.SurveyID)
	assert.True(t, decimal.RequireFromString("1500.5").Equal(pune.ActualCapacity))
	assert.True(t, decimal.NewFromInt(820).Equal(pune.TotalArea))
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), pune.QCDate)
	assert.Equal(t, "MH", pune.Location)
	assert.Equal(t, "Pune", pune.District)
	assert.InDelta(t, 73.85, pune.Longitude, 1e-9)

	assert.True(t, decimal.RequireFromString("400.25").Equal(nagpur.TotalArea))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), nagpur.QCDate, "falls back to observation date")

	assert.True(t, lucknow.TotalArea.IsZero(), "non-numeric text defaults")
	assert.Equal(t, time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC), lucknow.QCDate)

	assert.Empty(t, pune.OwnerName)
	assert.Zero(t, pune.NumberOfChambers)
	assert.Zero(t, res.Stats[domain.DefaultKey{Field: domain.FieldFacilityType, Reason: domain.StatusAbsent}], "literal projections decode")
	assert.Equal(t, 1, res.Stats[domain.DefaultKey{Field: domain.FieldTotalArea, Reason: domain.StatusUnconvertible}])
}

func TestStore_QueryFilters(t *testing.T) {
	s := openSeeded(t, sampleRows()...)
	ist := time.FixedZone("IST", 5*60*60+30*60)

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		want     []string
	}{
		{"state", domain.FilterCriteria{State: "MH"}, []string{"Nagpur", "Pune"}},
		{"city", domain.FilterCriteria{City: "Lucknow"}, []string{"Lucknow"}},
		{"no match", domain.FilterCriteria{State: "Gujarat"}, []string{}},
		{"start date", domain.FilterCriteria{StartDate: ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))}, []string{"Nagpur", "Lucknow"}},
		{"end date", domain.FilterCriteria{EndDate: ptr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))}, []string{"Nagpur", "Pune"}},
		{
			"state and range",
			domain.FilterCriteria{
				State:     "MH",
				StartDate: ptr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
				EndDate:   ptr(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)),
			},
			[]string{"Pune"},
		},
		{
			"end date before offset-adjusted qc date",
			domain.FilterCriteria{State: "UP", EndDate: ptr(time.Date(2024, 5, 1, 10, 0, 0, 0, ist))},
			[]string{},
		},
		{
			"end date at offset-adjusted qc date",
			domain.FilterCriteria{State: "UP", EndDate: ptr(time.Date(2024, 5, 1, 14, 0, 0, 0, ist))},
			[]string{"Lucknow"},
		},
		{
			"start date after offset-adjusted qc date",
			domain.FilterCriteria{StartDate: ptr(time.Date(2024, 5, 1, 14, 0, 1, 0, ist))},
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := aggregate(t, s, tt.criteria)

			cities := make([]string, len(res.Records))
			for i, r := range res.Records {
				cities[i] = r.City
			}
			assert.Equal(t, tt.want, cities)
		})
	}
}

func TestStore_QueryMissingStateAndCity(t *testing.T) {
	s := openSeeded(t, []any{"SV-9", "", nil, 10.0, "5", nil, nil, nil, nil, nil})

	res := aggregate(t, s, domain.FilterCriteria{})

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "Unknown", rec.State)
	assert.Equal(t, "Unknown", rec.City)
	assert.Empty(t, rec.District)
	assert.Empty(t, rec.QCStatus)
	assert.Zero(t, rec.Latitude)
	assert.Equal(t, []string{"Unknown"}, res.Facets.States)
}

func TestStore_QueryEmptyTable(t *testing.T) {
	s := openSeeded(t)

	res := aggregate(t, s, domain.FilterCriteria{})

	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Facets.States)
}

func TestStore_QueryMissingTable(t *testing.T) {
	s := openSeeded(t)
	schema := query.DefaultSchema()
	schema.Table = "No_Such_Table"
	b := query.NewBuilder(s.Dialect(), schema, domain.VariantRegistry)

	_, err := s.Query(context.Background(), b.Build(domain.FilterCriteria{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlstore: query")
}

func TestStore_QueryCanceledContext(t *testing.T) {
	s := openSeeded(t, sampleRows()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := query.NewBuilder(s.Dialect(), query.DefaultSchema(), domain.VariantRegistry)

	_, err := s.Query(ctx, b.Build(domain.FilterCriteria{}))

	require.Error(t, err)
}

func TestStore_Columns(t *testing.T) {
	s := openSeeded(t)

	cols, err := s.Columns(context.Background(), "Cold_Storage")
	require.NoError(t, err)
	require.Len(t, cols, 10)
	assert.Equal(t, "Survey ID", cols[0])
	assert.Equal(t, "What is the actual capacity of your facility (in metric tonnes)?", cols[3])

	cols, err = s.Columns(context.Background(), "Missing")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestStore_PingAndClose(t *testing.T) {
	s := openSeeded(t)

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	require.Error(t, s.Ping(context.Background()))
}

func ptr[T any](v T) *T { return &v }
