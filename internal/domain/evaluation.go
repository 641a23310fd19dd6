package domain

import "time"

// LocationSummary identifies the evaluated parcel in an Evaluation payload.
type LocationSummary struct {
	LocationName   string  `json:"location_name"`
	Coordinates    string  `json:"coordinates"`
	LandArea       float64 `json:"land_area"`
	ZoningCategory string  `json:"zoning_category"`
	ParcelID       string  `json:"parcel_id"`
}

// EvaluationMetadata carries provenance for an evaluation result.
type EvaluationMetadata struct {
	DataSource  string    `json:"data_source"`
	Sources     []string  `json:"sources"`
	OfflineMode bool      `json:"offline_mode"`
	CacheHit    bool      `json:"cache_hit"`
	LastUpdated time.Time `json:"last_updated"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Evaluation is the complete result of one evaluate call: engine outputs,
// confidence, narrative interpretation, and provenance.
type Evaluation struct {
	LocationSummary  LocationSummary      `json:"location_summary"`
	EngineOutput     RiskEngineOutput     `json:"engine_output"`
	ConfidenceOutput ConfidenceOutput     `json:"confidence_output"`
	Interpretation   InterpretationResult `json:"interpretation"`
	Metadata         EvaluationMetadata   `json:"metadata"`
}
