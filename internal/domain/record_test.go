package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("registry")
	require.NoError(t, err)
	assert.Equal(t, VariantRegistry, v)

	v, err = ParseVariant(" Utilization ")
	require.NoError(t, err)
	assert.Equal(t, VariantUtilization, v)

	_, err = ParseVariant("legacy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy")
}

func TestVariant_Fields(t *testing.T) {
	registry := VariantRegistry.Fields()
	utilization := VariantUtilization.Fields()

	assert.Equal(t, FieldID, registry[0])
	assert.Contains(t, registry, FieldOwnerName)
	assert.NotContains(t, registry, FieldTemperature)
	assert.Contains(t, utilization, FieldTemperature)
	assert.NotContains(t, utilization, FieldOwnerName)
	assert.Len(t, registry, len(commonFields)+5)
	assert.Len(t, utilization, len(commonFields)+3)
}

func TestFilterCriteria_Normalize(t *testing.T) {
	c := FilterCriteria{State: "  ", City: " Pune "}.Normalize()

	assert.Empty(t, c.State)
	assert.False(t, c.HasState())
	assert.Equal(t, "Pune", c.City)
	assert.True(t, c.HasCity())
}
