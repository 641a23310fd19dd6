// Package domain models land-parcel risk evaluation.
//
// # Scoring Model
//
// A parcel is described by five sub-indices, each a real number conventionally
// in [0,100]:
//
//	soil_index          regional soil stability classification
//	flood_index         precipitation-derived flood exposure
//	environmental_index inverse of local seismic activity (less activity scores higher)
//	zoning_index        zoning compliance (fixed at 50 until a zoning source exists)
//	topography_index    elevation suitability for construction
//
// The risk engine combines them into a composite score:
//
//	risk_score = soil×0.35 + flood×0.25 + environmental×0.15 + zoning×0.15 + topography×0.10
//
// Weighted values are rounded to two decimals before summing and the composite
// is rounded again, so the breakdown always reconciles with the score to
// within ±0.01. Classification: ≤39 Low, ≤69 Moderate, else High. The dominant
// factor is the breakdown entry with the strictly greatest weighted value;
// exact ties resolve to the earlier factor in engine order (soil, flood,
// environmental, zoning, topography).
//
// # Confidence Model
//
// Three quality metrics in [0,1] describe how trustworthy the sub-indices are:
//
//	confidence = completeness×0.5 + consistency×0.3 + recency×0.2
//
// rounded to three decimals. Completeness below 0.6 raises the low-integrity
// flag regardless of the other metrics.
//
// # Data Sources
//
// Sub-indices are aggregated from four external sources (see
// internal/aggregate): a regional soil classification table, the NASA POWER
// climate API, the USGS earthquake catalog, and the Open-Elevation lookup.
// Any source failure substitutes a neutral 50 and marks the evaluation as
// offline; a degraded result is always preferred over a failed request.
//
// # Interpretation
//
// Engine outputs can be narrated by an external interpretation service. When
// that service is unreachable, [FallbackInterpretation] produces a
// deterministic template-based narrative from the same structured outputs, so
// callers always receive a summary, observations, a recommended action, and a
// limitations disclaimer.
package domain
