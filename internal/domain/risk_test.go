package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRisk_WeightedSum(t *testing.T) {
	out := CalculateRisk(Indices{
		Soil:          60,
		Flood:         40,
		Environmental: 50,
		Zoning:        50,
		Topography:    70,
	})

	// 60*.35 + 40*.25 + 50*.15 + 50*.15 + 70*.10 = 53.0
	assert.InDelta(t, 53.0, out.RiskScore, 0.01)
	assert.Equal(t, ClassificationModerate, out.Classification)
	assert.Equal(t, ModelVersion, out.ModelVersion)
}

func TestCalculateRisk_Breakdown(t *testing.T) {
	out := CalculateRisk(Indices{Soil: 80, Flood: 20, Environmental: 30, Zoning: 50, Topography: 10})

	require.Len(t, out.FactorBreakdown, 5)

	soil := out.FactorBreakdown[0]
	assert.Equal(t, FactorSoil, soil.Factor)
	assert.Equal(t, 80.0, soil.RawValue)
	assert.Equal(t, 0.35, soil.Weight)
	assert.Equal(t, 28.0, soil.WeightedValue)

	// Breakdown preserves the fixed factor order.
	assert.Equal(t, FactorFlood, out.FactorBreakdown[1].Factor)
	assert.Equal(t, FactorEnvironmental, out.FactorBreakdown[2].Factor)
	assert.Equal(t, FactorZoning, out.FactorBreakdown[3].Factor)
	assert.Equal(t, FactorTopography, out.FactorBreakdown[4].Factor)
}

func TestCalculateRisk_ClassificationBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		index float64
		want  string
	}{
		// All weights sum to 1, so uniform indices yield that exact score.
		{"39 is Low", 39, ClassificationLow},
		{"40 is Moderate", 40, ClassificationModerate},
		{"69 is Moderate", 69, ClassificationModerate},
		{"70 is High", 70, ClassificationHigh},
		{"0 is Low", 0, ClassificationLow},
		{"100 is High", 100, ClassificationHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CalculateRisk(Indices{
				Soil: tt.index, Flood: tt.index, Environmental: tt.index,
				Zoning: tt.index, Topography: tt.index,
			})
			assert.InDelta(t, tt.index, out.RiskScore, 0.01)
			assert.Equal(t, tt.want, out.Classification)
		})
	}
}

func TestCalculateRisk_DominantFactor(t *testing.T) {
	out := CalculateRisk(Indices{Soil: 10, Flood: 90, Environmental: 10, Zoning: 10, Topography: 10})
	assert.Equal(t, FactorFlood, out.DominantFactor)
}

func TestCalculateRisk_DominantFactorTieBreak(t *testing.T) {
	// Equal indices produce weighted values led by the highest weight.
	out := CalculateRisk(Indices{Soil: 50, Flood: 50, Environmental: 50, Zoning: 50, Topography: 50})
	assert.Equal(t, FactorSoil, out.DominantFactor)

	// Environmental and Zoning share weight 0.15; on an exact tie the
	// earlier factor wins.
	out = CalculateRisk(Indices{Soil: 0, Flood: 0, Environmental: 80, Zoning: 80, Topography: 0})
	assert.Equal(t, FactorEnvironmental, out.DominantFactor)
}

func TestCalculateRisk_Deterministic(t *testing.T) {
	ind := Indices{Soil: 33.33, Flood: 66.67, Environmental: 12.5, Zoning: 50, Topography: 87.1}
	assert.Equal(t, CalculateRisk(ind), CalculateRisk(ind))
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0.0, ClampIndex(-5))
	assert.Equal(t, 100.0, ClampIndex(140))
	assert.Equal(t, 42.5, ClampIndex(42.5))
}
