package domain

import "context"

// SoilSample is a normalized regional soil classification.
type SoilSample struct {
	SoilIndex     float64 `json:"soil_index"`
	ClayContent   float64 `json:"clay_content"`
	SandContent   float64 `json:"sand_content"`
	OrganicCarbon float64 `json:"organic_carbon"`
	PHLevel       float64 `json:"ph_level"`
}

// ClimateSample is a normalized 30-day precipitation/humidity reading.
type ClimateSample struct {
	FloodIndex     float64 `json:"flood_index"`
	AnnualRainfall float64 `json:"annual_rainfall"`
	AvgHumidity    float64 `json:"avg_humidity"`
}

// SeismicSample is a normalized earthquake-catalog reading. SeismicIndex
// measures activity: higher means more seismic risk. The environmental
// sub-index is its inverse (100 - seismic).
type SeismicSample struct {
	SeismicIndex float64 `json:"seismic_index"`
	QuakeCount   int     `json:"earthquake_count"`
	MaxMagnitude float64 `json:"max_magnitude"`
}

// ElevationSample is a normalized point-elevation reading.
type ElevationSample struct {
	TopographyIndex float64 `json:"topography_index"`
	Elevation       float64 `json:"elevation"`
}

// SoilSource classifies soil conditions at a point.
type SoilSource interface {
	FetchSoil(ctx context.Context, lat, lng float64) (SoilSample, error)
}

// ClimateSource reads precipitation and humidity at a point.
type ClimateSource interface {
	FetchClimate(ctx context.Context, lat, lng float64) (ClimateSample, error)
}

// SeismicSource reads recent earthquake activity around a point.
type SeismicSource interface {
	FetchSeismic(ctx context.Context, lat, lng float64) (SeismicSample, error)
}

// ElevationSource reads terrain elevation at a point.
type ElevationSource interface {
	FetchElevation(ctx context.Context, lat, lng float64) (ElevationSample, error)
}

// Interpreter narrates engine outputs. Implementations call an external
// service and must return an error (never a partial result) on any failure,
// so callers can fall back to [FallbackInterpretation].
type Interpreter interface {
	Interpret(ctx context.Context, req InterpretRequest) (InterpretationResult, error)
}
