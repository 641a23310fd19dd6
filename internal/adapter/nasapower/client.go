// Package nasapower reads precipitation and humidity from the NASA POWER
// daily point API and normalizes them into a flood exposure index.
package nasapower

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// SourceID identifies this source in aggregation provenance.
const SourceID = "nasa-power"

// windowDays is the rolling daily window ending today. The rainfall sum over
// this window feeds the flood buckets directly, matching the calibration of
// the bucket thresholds.
const windowDays = 30

// Client implements domain.ClimateSource against the NASA POWER API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a NASA POWER client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://power.larc.nasa.gov/api/temporal/daily/point",
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
}

// FetchClimate reads the last 30 days of daily precipitation and humidity at
// the point and derives the flood index.
func (c *Client) FetchClimate(ctx context.Context, lat, lng float64) (domain.ClimateSample, error) {
	end := c.clock.Now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	params := url.Values{
		"latitude":   {fmt.Sprintf("%v", lat)},
		"longitude":  {fmt.Sprintf("%v", lng)},
		"parameters": {"PRECTOTCORR,RH2M"},
		"community":  {"AG"},
		"format":     {"JSON"},
		"start":      {start.Format("20060102")},
		"end":        {end.Format("20060102")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.ClimateSample{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ClimateSample{}, fmt.Errorf("nasa power request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.ClimateSample{}, fmt.Errorf("nasa power API error: status %d: %s", resp.StatusCode, body)
	}

	var powerResp response
	if err := json.NewDecoder(resp.Body).Decode(&powerResp); err != nil {
		return domain.ClimateSample{}, fmt.Errorf("decode response: %w", err)
	}

	return parseClimate(powerResp), nil
}

func parseClimate(r response) domain.ClimateSample {
	var rainfall float64
	for _, v := range r.Properties.Parameter.Precipitation {
		rainfall += v
	}

	avgHumidity := 50.0
	if n := len(r.Properties.Parameter.Humidity); n > 0 {
		var sum float64
		for _, v := range r.Properties.Parameter.Humidity {
			sum += v
		}
		avgHumidity = sum / float64(n)
	}

	return domain.ClimateSample{
		FloodIndex:     floodIndex(rainfall, avgHumidity),
		AnnualRainfall: rainfall,
		AvgHumidity:    avgHumidity,
	}
}

// floodIndex buckets the rainfall total (mm) into a base score, then adjusts
// ±10 for humidity extremes.
func floodIndex(rainfall, avgHumidity float64) float64 {
	var score float64
	switch {
	case rainfall < 1000:
		score = 20
	case rainfall < 2000:
		score = 40
	case rainfall < 3000:
		score = 60
	case rainfall < 4000:
		score = 75
	default:
		score = 90
	}

	if avgHumidity > 80 {
		score += 10
	} else if avgHumidity < 50 {
		score -= 10
	}

	return domain.ClampIndex(score)
}

// NASA POWER API response types.

type response struct {
	Properties struct {
		Parameter struct {
			Precipitation map[string]float64 `json:"PRECTOTCORR"`
			Humidity      map[string]float64 `json:"RH2M"`
		} `json:"parameter"`
	} `json:"properties"`
}
