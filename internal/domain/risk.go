package domain

import "math"

// ModelVersion tags every risk engine output so stored reports can be traced
// back to the formula that produced them.
const ModelVersion = "LR-Engine-v1.0"

// Classification labels for the composite risk score.
const (
	ClassificationLow      = "Low"
	ClassificationModerate = "Moderate"
	ClassificationHigh     = "High"
)

// Factor display labels.
const (
	FactorSoil          = "Soil Stability"
	FactorFlood         = "Flood Exposure"
	FactorEnvironmental = "Environmental Sensitivity"
	FactorZoning        = "Zoning Compliance"
	FactorTopography    = "Topography Index"
)

// FactorBreakdown is one row of the per-factor decomposition of a risk score.
type FactorBreakdown struct {
	Factor        string  `json:"factor"`
	RawValue      float64 `json:"raw_value"`
	Weight        float64 `json:"weight"`
	WeightedValue float64 `json:"weighted_value"`
}

// RiskEngineOutput is the full result of one deterministic risk calculation.
// It is derived, never stored independently: recomputing from the same
// indices always reproduces it bit for bit.
type RiskEngineOutput struct {
	RiskScore       float64           `json:"risk_score"`
	Classification  string            `json:"classification"`
	DominantFactor  string            `json:"dominant_factor"`
	FactorBreakdown []FactorBreakdown `json:"factor_breakdown"`
	ModelVersion    string            `json:"model_version"`
}

// riskFactors defines label, weight, and accessor per factor. Order is the
// engine iteration order and the dominant-factor tie-break order. Weights sum
// to 1.0 exactly.
var riskFactors = []struct {
	label  string
	weight float64
	value  func(Indices) float64
}{
	{FactorSoil, 0.35, func(i Indices) float64 { return i.Soil }},
	{FactorFlood, 0.25, func(i Indices) float64 { return i.Flood }},
	{FactorEnvironmental, 0.15, func(i Indices) float64 { return i.Environmental }},
	{FactorZoning, 0.15, func(i Indices) float64 { return i.Zoning }},
	{FactorTopography, 0.10, func(i Indices) float64 { return i.Topography }},
}

// CalculateRisk maps five sub-indices to a weighted composite score,
// classification, dominant factor, and per-factor breakdown. Pure and
// deterministic; memoization lives in internal/engine.
func CalculateRisk(ind Indices) RiskEngineOutput {
	breakdown := make([]FactorBreakdown, 0, len(riskFactors))
	for _, f := range riskFactors {
		raw := f.value(ind)
		breakdown = append(breakdown, FactorBreakdown{
			Factor:        f.label,
			RawValue:      round2(raw),
			Weight:        f.weight,
			WeightedValue: round2(raw * f.weight),
		})
	}

	var sum float64
	dominant := breakdown[0]
	for _, b := range breakdown {
		sum += b.WeightedValue
		if b.WeightedValue > dominant.WeightedValue {
			dominant = b
		}
	}
	score := round2(sum)

	return RiskEngineOutput{
		RiskScore:       score,
		Classification:  classify(score),
		DominantFactor:  dominant.Factor,
		FactorBreakdown: breakdown,
		ModelVersion:    ModelVersion,
	}
}

// classify buckets a composite score. Boundaries are inclusive: 39 is Low,
// 40 and 69 are Moderate, 70 is High.
func classify(score float64) string {
	switch {
	case score <= 39:
		return ClassificationLow
	case score <= 69:
		return ClassificationModerate
	default:
		return ClassificationHigh
	}
}

// ClampIndex bounds a sub-index to [0,100].
func ClampIndex(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
