package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateConfidence_PerfectMetrics(t *testing.T) {
	out := CalculateConfidence(QualityMetrics{Completeness: 1, Consistency: 1, Recency: 1})

	assert.Equal(t, 1.0, out.ConfidenceScore)
	assert.False(t, out.LowIntegrity)
}

func TestCalculateConfidence_WeightedBlend(t *testing.T) {
	out := CalculateConfidence(QualityMetrics{Completeness: 0.5, Consistency: 1, Recency: 1})

	// 0.5*0.5 + 1*0.3 + 1*0.2 = 0.75
	assert.Equal(t, 0.75, out.ConfidenceScore)
	assert.True(t, out.LowIntegrity)
}

func TestCalculateConfidence_EchoesInputs(t *testing.T) {
	out := CalculateConfidence(QualityMetrics{Completeness: 0.9, Consistency: 0.8, Recency: 1})

	assert.Equal(t, 0.9, out.CompletenessScore)
	assert.Equal(t, 0.8, out.ConsistencyScore)
	assert.Equal(t, 1.0, out.RecencyScore)
}

func TestCalculateConfidence_LowIntegrityBoundary(t *testing.T) {
	// Strictly below 0.6 flags low integrity; exactly 0.6 does not.
	assert.True(t, CalculateConfidence(QualityMetrics{Completeness: 0.59, Consistency: 1, Recency: 1}).LowIntegrity)
	assert.False(t, CalculateConfidence(QualityMetrics{Completeness: 0.6, Consistency: 1, Recency: 1}).LowIntegrity)
}

func TestCalculateConfidence_RoundsToThreeDecimals(t *testing.T) {
	out := CalculateConfidence(QualityMetrics{Completeness: 0.775, Consistency: 0.8, Recency: 1})

	// 0.3875 + 0.24 + 0.2 = 0.8275 → 0.828
	assert.Equal(t, 0.828, out.ConfidenceScore)
}
