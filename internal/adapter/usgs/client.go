// Package usgs reads recent earthquake activity from the USGS event catalog
// and normalizes it into a seismic activity index.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// SourceID identifies this source in aggregation provenance.
const SourceID = "usgs"

// Catalog query bounds: events within 100 km, most recent 100.
const (
	radiusKm    = 100
	resultLimit = 100
)

// Client implements domain.SeismicSource against the USGS fdsnws event API.
// Requests are rate limited: the catalog is a shared public service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a USGS earthquake catalog client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://earthquake.usgs.gov/fdsnws/event/1/query",
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		logger:     logger,
	}
}

// FetchSeismic queries the catalog around the point and derives the seismic
// index from event count and maximum magnitude.
func (c *Client) FetchSeismic(ctx context.Context, lat, lng float64) (domain.SeismicSample, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.SeismicSample{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"latitude":    {fmt.Sprintf("%v", lat)},
		"longitude":   {fmt.Sprintf("%v", lng)},
		"maxradiuskm": {fmt.Sprintf("%d", radiusKm)},
		"format":      {"geojson"},
		"limit":       {fmt.Sprintf("%d", resultLimit)},
		"orderby":     {"time"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.SeismicSample{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SeismicSample{}, fmt.Errorf("usgs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.SeismicSample{}, fmt.Errorf("usgs API error: status %d: %s", resp.StatusCode, body)
	}

	var catalog response
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return domain.SeismicSample{}, fmt.Errorf("decode response: %w", err)
	}

	return parseSeismic(catalog), nil
}

func parseSeismic(r response) domain.SeismicSample {
	count := len(r.Features)
	var maxMag float64
	for _, f := range r.Features {
		if f.Properties.Mag > maxMag {
			maxMag = f.Properties.Mag
		}
	}

	return domain.SeismicSample{
		SeismicIndex: seismicIndex(count, maxMag),
		QuakeCount:   count,
		MaxMagnitude: maxMag,
	}
}

// seismicIndex tiers the event count on a base of 20, then adds a maximum
// magnitude bonus. A quiet catalog scores 10.
func seismicIndex(count int, maxMag float64) float64 {
	score := 20.0
	switch {
	case count == 0:
		score = 10
	case count <= 5:
		score += 10
	case count <= 20:
		score += 30
	case count <= 50:
		score += 50
	default:
		score += 70
	}

	switch {
	case maxMag >= 7:
		score += 30
	case maxMag >= 5:
		score += 20
	case maxMag >= 3:
		score += 10
	}

	return domain.ClampIndex(score)
}

// USGS geojson response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties struct {
		Mag float64 `json:"mag"`
	} `json:"properties"`
}
