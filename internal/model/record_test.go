package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricRecord_UnknownVersusZero(t *testing.T) {
	t.Parallel()

	r := NewRecord("loc-1", "2024-2025")
	r.Set(FieldExtractionTotal, 0)

	require.True(t, r.Known(FieldExtractionTotal))
	require.NotNil(t, r.Value(FieldExtractionTotal))
	assert.Equal(t, 0.0, *r.Value(FieldExtractionTotal))

	assert.False(t, r.Known(FieldRechargeTotal))
	assert.Nil(t, r.Value(FieldRechargeTotal))
}

func TestMetricRecord_SetNaNClears(t *testing.T) {
	t.Parallel()

	r := NewRecord("loc-1", "2024-2025")
	r.Set(FieldStageOfExtraction, 55)
	r.Set(FieldStageOfExtraction, math.NaN())
	assert.False(t, r.Known(FieldStageOfExtraction))

	r.SetPtr(FieldStageOfExtraction, nil)
	assert.False(t, r.Known(FieldStageOfExtraction))

	v := 12.5
	r.SetPtr(FieldStageOfExtraction, &v)
	got, ok := r.Get(FieldStageOfExtraction)
	assert.True(t, ok)
	assert.Equal(t, 12.5, got)
}

func TestMetricRecord_CloneIsDeep(t *testing.T) {
	t.Parallel()

	r := NewRecord("loc-1", "2024-2025")
	r.Set(FieldRainfallTotal, 800)
	c := r.Clone()
	c.Set(FieldRainfallTotal, 900)

	v, _ := r.Get(FieldRainfallTotal)
	assert.Equal(t, 800.0, v)
}

func TestMetricRecord_KnownFieldsOrdered(t *testing.T) {
	t.Parallel()

	r := NewRecord("loc-1", "2024-2025")
	r.Set(FieldStageOfExtraction, 1)
	r.Set(Field("zz_custom"), 1)
	r.Set(FieldRainfallTotal, 1)
	r.Set(Field("aa_custom"), 1)

	assert.Equal(t, []Field{FieldRainfallTotal, FieldStageOfExtraction, "aa_custom", "zz_custom"}, r.KnownFields())
}

func TestAllFields(t *testing.T) {
	t.Parallel()

	fields := AllFields()
	assert.Greater(t, len(fields), 75)
	assert.True(t, IsKnownField(FieldExtractionTotal))
	assert.True(t, IsKnownField("recharge_canal_non_command"))
	assert.False(t, IsKnownField("nonsense"))
	assert.Equal(t, 0, FieldOrder(fields[0]))

	seen := make(map[Field]bool)
	for _, f := range fields {
		assert.False(t, seen[f], "duplicate field %s", f)
		seen[f] = true
	}

	fields[0] = "mutated"
	assert.NotEqual(t, Field("mutated"), AllFields()[0])
}
