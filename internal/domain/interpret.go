package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Interpretation sources: produced by the external service, or by the
// deterministic template fallback.
const (
	InterpretationExternal = "external"
	InterpretationFallback = "fallback"
)

// ParcelMetadata is the descriptive context sent alongside engine outputs to
// the interpretation service.
type ParcelMetadata struct {
	LocationName   string  `json:"location_name"`
	Coordinates    string  `json:"coordinates"`
	LandArea       float64 `json:"land_area"`
	ZoningCategory string  `json:"zoning_category"`
}

// InterpretRequest is the JSON body posted to the interpretation service.
type InterpretRequest struct {
	EngineOutput     RiskEngineOutput `json:"engine_output"`
	ConfidenceOutput ConfidenceOutput `json:"confidence_output"`
	ParcelMetadata   ParcelMetadata   `json:"parcel_metadata"`
}

// InterpretationResult is a narrative reading of the engine outputs. Source
// records whether the external service or the fallback produced it.
type InterpretationResult struct {
	Summary           string   `json:"summary"`
	KeyObservations   []string `json:"key_observations"`
	RecommendedAction string   `json:"recommended_action"`
	Limitations       string   `json:"limitations"`
	Source            string   `json:"source"`
}

// FallbackInterpretation builds a deterministic narrative directly from the
// engine outputs. It is the recovery path for any interpretation-service
// failure and must succeed for every valid input.
func FallbackInterpretation(engine RiskEngineOutput, conf ConfidenceOutput, meta ParcelMetadata) InterpretationResult {
	confidencePercent := int(math.Round(conf.ConfidenceScore * 100))

	// Factors ordered by descending contribution. Stable sort keeps the
	// engine tie-break order for equal weighted values.
	sorted := make([]FactorBreakdown, len(engine.FactorBreakdown))
	copy(sorted, engine.FactorBreakdown)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WeightedValue > sorted[j].WeightedValue
	})

	summary := fmt.Sprintf(
		"The parcel at %s (%s) has been evaluated with a composite risk score of %.1f/100, classified as %s Risk. "+
			"The dominant risk contributor is %s, which accounts for a weighted value of %.1f out of the total score. "+
			"The assessment carries a confidence level of %d%%, derived from data completeness, model consistency, and data recency metrics.",
		meta.LocationName, meta.Coordinates, engine.RiskScore, engine.Classification,
		engine.DominantFactor, sorted[0].WeightedValue, confidencePercent,
	)

	observations := make([]string, 0, len(sorted)+1)
	for _, f := range sorted {
		observations = append(observations, fmt.Sprintf(
			"%s: Raw value %.1f/100 (weight: %.0f%%) contributing %.1f to composite score.",
			f.Factor, f.RawValue, f.Weight*100, f.WeightedValue,
		))
	}
	if conf.LowIntegrity {
		observations = append(observations,
			"Data completeness is below the 60% threshold; results should be treated with caution.")
	}

	return InterpretationResult{
		Summary:           summary,
		KeyObservations:   observations,
		RecommendedAction: recommendedAction(engine, meta, sorted),
		Limitations:       limitations(conf.LowIntegrity, confidencePercent),
		Source:            InterpretationFallback,
	}
}

// recommendedAction selects the action template by classification. High risk
// names the dominant factor plus a second-factor investigation; Moderate
// targets the dominant factor and zoning verification; Low is standard due
// diligence.
func recommendedAction(engine RiskEngineOutput, meta ParcelMetadata, sorted []FactorBreakdown) string {
	switch engine.Classification {
	case ClassificationHigh:
		second := "environmental impact study"
		if len(sorted) > 1 {
			second = strings.ToLower(sorted[1].Factor) + " assessment"
		}
		return fmt.Sprintf(
			"High risk detected primarily from %s. Recommend conducting a comprehensive geotechnical survey and %s before proceeding with any capital allocation.",
			engine.DominantFactor, second,
		)
	case ClassificationModerate:
		return fmt.Sprintf(
			"Moderate risk profile driven by %s. Recommend targeted investigation of %s conditions and verification of %s zoning compliance before commitment.",
			engine.DominantFactor, strings.ToLower(engine.DominantFactor), meta.ZoningCategory,
		)
	default:
		return fmt.Sprintf(
			"Low risk profile. Standard due diligence recommended, with particular attention to %s verification and zoning regulatory confirmation.",
			strings.ToLower(engine.DominantFactor),
		)
	}
}

func limitations(lowIntegrity bool, confidencePercent int) string {
	parts := []string{"Interpretation generated from structured engine output."}
	if lowIntegrity {
		parts = append(parts,
			"Data completeness is below the acceptable threshold (60%). Findings are preliminary and require field verification.")
	}
	parts = append(parts,
		"Risk indices are derived from coarse public data sources and should not be the sole basis for investment decisions.",
		fmt.Sprintf("Confidence: %d%%.", confidencePercent),
	)
	return strings.Join(parts, " ")
}
