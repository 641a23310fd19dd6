// Package soil classifies soil conditions from a regional bounding-box table.
//
// The upstream SoilGrids REST API is unreliable (paused for long stretches),
// so this source never makes a network call: coordinates are matched against
// coarse geographic bands with fixed soil profiles. It can only fail on
// malformed coordinates.
package soil

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// SourceID identifies this source in aggregation provenance.
const SourceID = "soilgrids-regional"

// Client implements domain.SoilSource from the regional table.
type Client struct {
	logger *slog.Logger
}

// NewClient creates a regional soil classifier.
func NewClient(logger *slog.Logger) *Client {
	return &Client{logger: logger}
}

// FetchSoil classifies the coordinate into a regional soil profile.
func (c *Client) FetchSoil(_ context.Context, lat, lng float64) (domain.SoilSample, error) {
	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return domain.SoilSample{}, err
	}
	return regionalProfile(lat, lng), nil
}

// regionalProfile matches the coordinate against geographic bands in order.
// Profiles are representative regional averages, not point measurements.
func regionalProfile(lat, lng float64) domain.SoilSample {
	// Southeast Asian tropical belt: rainforest soils, high organic content,
	// slightly acidic.
	if lat >= -11 && lat <= 6 && lng >= 95 && lng <= 141 {
		return domain.SoilSample{
			SoilIndex:     55,
			ClayContent:   35,
			SandContent:   35,
			OrganicCarbon: 3.2,
			PHLevel:       5.8,
		}
	}

	// Mediterranean band.
	if lat >= 30 && lat <= 46 && lng >= -10 && lng <= 36 {
		return domain.SoilSample{
			SoilIndex:     65,
			ClayContent:   28,
			SandContent:   42,
			OrganicCarbon: 2.1,
			PHLevel:       7.2,
		}
	}

	// North-American temperate band.
	if lat >= 25 && lat <= 50 && lng >= -125 && lng <= -70 {
		return domain.SoilSample{
			SoilIndex:     68,
			ClayContent:   30,
			SandContent:   38,
			OrganicCarbon: 3.5,
			PHLevel:       6.5,
		}
	}

	// Global default.
	return domain.SoilSample{
		SoilIndex:     50,
		ClayContent:   33,
		SandContent:   40,
		OrganicCarbon: 2.5,
		PHLevel:       6.5,
	}
}
