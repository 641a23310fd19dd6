// Package openelev reads point elevation from the Open-Elevation API and
// normalizes it into a topography suitability index.
package openelev

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// SourceID identifies this source in aggregation provenance.
const SourceID = "open-elevation"

// Client implements domain.ElevationSource against the Open-Elevation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an Open-Elevation client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.open-elevation.com/api/v1/lookup",
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		logger:     logger,
	}
}

// FetchElevation looks up terrain elevation at the point and derives the
// topography index.
func (c *Client) FetchElevation(ctx context.Context, lat, lng float64) (domain.ElevationSample, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ElevationSample{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"locations": {fmt.Sprintf("%v,%v", lat, lng)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.ElevationSample{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ElevationSample{}, fmt.Errorf("open-elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.ElevationSample{}, fmt.Errorf("open-elevation API error: status %d: %s", resp.StatusCode, body)
	}

	var lookup response
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return domain.ElevationSample{}, fmt.Errorf("decode response: %w", err)
	}

	// Missing results fall back to a neutral mid elevation rather than
	// failing the whole source.
	elevation := 50.0
	if len(lookup.Results) > 0 {
		elevation = lookup.Results[0].Elevation
	}

	return domain.ElevationSample{
		TopographyIndex: topographyIndex(elevation, lat),
		Elevation:       elevation,
	}, nil
}

// topographyIndex bands elevation by construction suitability: 50-500m is
// optimal, extremes score low. Near-sea-level points close to the equator
// take a coastal flood penalty.
func topographyIndex(elevation, lat float64) float64 {
	var score float64
	switch {
	case elevation >= 50 && elevation <= 500:
		score = 80
	case elevation < 50:
		score = 60
	case elevation <= 1000:
		score = 70
	case elevation <= 2000:
		score = 50
	default:
		score = 30
	}

	if elevation < 10 && math.Abs(lat) < 5 {
		score -= 10
	}

	return domain.ClampIndex(score)
}

// Open-Elevation API response types.

type response struct {
	Results []result `json:"results"`
}

type result struct {
	Elevation float64 `json:"elevation"`
}
