package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchema_Valid(t *testing.T) {
	s := DefaultSchema()

	require.NoError(t, s.Validate())
	assert.Equal(t, "Cold_Storage", s.Table)
	assert.Equal(t, "What is the actual capacity of your facility (in metric tonnes)?", s.Columns.Capacity)
}

func TestLoadSchema_EmptyPathKeepsBase(t *testing.T) {
	s, err := LoadSchema("", DefaultSchema())

	require.NoError(t, err)
	assert.Equal(t, DefaultSchema(), s)
}

func TestLoadSchema_OverlaysFile(t *testing.T) {
	s, err := LoadSchema(filepath.Join("testdata", "columns.yaml"), DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, "dbo.Cold_Storage_2024", s.Table)
	assert.Equal(t, "State Name", s.Columns.State)
	assert.Equal(t, "Facility Address", s.Columns.Address)
	assert.Equal(t, "Storage Temperature (C)", s.Columns.Temperature)
	assert.Equal(t, "City", s.Columns.City, "unlisted keys keep the base value")
}

func TestLoadSchema_Invalid(t *testing.T) {
	_, err := LoadSchema(filepath.Join("testdata", "invalid.yaml"), DefaultSchema())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "city")
}

func TestLoadSchema_Errors(t *testing.T) {
	_, err := LoadSchema(filepath.Join("testdata", "missing.yaml"), DefaultSchema())
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("columns: [unterminated"), 0o600))
	_, err = LoadSchema(bad, DefaultSchema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse column map")
}

func TestSchema_ValidateListsEveryMissingColumn(t *testing.T) {
	s := DefaultSchema()
	s.Columns.Latitude = ""
	s.Columns.QCDate = " "

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qc_date")
	assert.Contains(t, err.Error(), "latitude")

	s = DefaultSchema()
	s.Table = ""
	require.Error(t, s.Validate())
}

func TestSchema_Mapped(t *testing.T) {
	m := DefaultSchema().Mapped()

	assert.Equal(t, "QC Date", m[string(domain.FieldQCDate)])
	assert.Equal(t, "Observation Date", m["ObservationDate"])
	assert.NotContains(t, m, string(domain.FieldOwnerName))
	assert.NotContains(t, m, string(domain.FieldLocation))
	assert.Len(t, m, 10)
}
