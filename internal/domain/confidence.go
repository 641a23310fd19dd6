package domain

import "math"

// lowIntegrityThreshold is the completeness value below which results are
// flagged as low integrity. Strict comparison: exactly 0.6 is acceptable.
const lowIntegrityThreshold = 0.6

// ConfidenceOutput is the result of one confidence calculation, echoing the
// input metrics alongside the composite.
type ConfidenceOutput struct {
	ConfidenceScore   float64 `json:"confidence_score"`
	CompletenessScore float64 `json:"completeness_score"`
	ConsistencyScore  float64 `json:"consistency_score"`
	RecencyScore      float64 `json:"recency_score"`
	LowIntegrity      bool    `json:"low_integrity"`
}

// CalculateConfidence maps the three quality metrics to a composite
// confidence score rounded to three decimals. Pure and deterministic.
func CalculateConfidence(m QualityMetrics) ConfidenceOutput {
	score := m.Completeness*0.5 + m.Consistency*0.3 + m.Recency*0.2

	return ConfidenceOutput{
		ConfidenceScore:   round3(score),
		CompletenessScore: m.Completeness,
		ConsistencyScore:  m.Consistency,
		RecencyScore:      m.Recency,
		LowIntegrity:      m.Completeness < lowIntegrityThreshold,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
