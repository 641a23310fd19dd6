package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidCoordinate marks latitude/longitude values that are missing,
// non-finite, or outside WGS-84 bounds. Rejected before any external call.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ValidateCoordinates checks a latitude/longitude pair against WGS-84 bounds.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, lng)
	}
	return nil
}

// Indices are the five sub-indices consumed by the risk engine. They are
// always populated (defaulted on source failure, never absent).
type Indices struct {
	Soil          float64 `json:"soil_index"`
	Flood         float64 `json:"flood_index"`
	Environmental float64 `json:"environmental_index"`
	Zoning        float64 `json:"zoning_index"`
	Topography    float64 `json:"topography_index"`
}

// QualityMetrics are the three [0,1] inputs to the confidence engine.
type QualityMetrics struct {
	Completeness float64 `json:"data_completeness"`
	Consistency  float64 `json:"model_consistency"`
	Recency      float64 `json:"data_recency"`
}

// ParcelSnapshot is the unit of evaluation: one coordinate pair with its
// aggregated sub-indices, quality metrics, and provenance.
//
// A snapshot with an empty UserID is a shared cache row, immutable once
// written and read-shared across callers. Claiming a parcel clones it into a
// user-owned copy (copy-on-write); the clone diverges independently and may
// be deleted without affecting the shared row.
type ParcelSnapshot struct {
	ID             string         `json:"id"`
	LocationName   string         `json:"location_name"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	LandArea       float64        `json:"land_area"`
	ZoningCategory string         `json:"zoning_category"`
	Indices        Indices        `json:"indices"`
	Quality        QualityMetrics `json:"quality"`

	DataSourceLabel string    `json:"data_source_label"`
	OfflineMode     bool      `json:"is_offline_mode"`
	CacheTimestamp  time.Time `json:"api_cache_timestamp"`
	LastUpdated     time.Time `json:"last_updated"`
	UserID          string    `json:"user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Shared reports whether the snapshot is a globally cached row rather than a
// user-owned copy.
func (p ParcelSnapshot) Shared() bool {
	return p.UserID == ""
}

// Coordinates renders the parcel position as "lat, lng" for display and for
// the interpretation metadata payload.
func (p ParcelSnapshot) Coordinates() string {
	return fmt.Sprintf("%v, %v", p.Latitude, p.Longitude)
}
