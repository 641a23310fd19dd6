package nasapower

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, clock clockwork.Clock) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		clock:      clock,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func powerResponse(precip, humidity map[string]float64) response {
	var r response
	r.Properties.Parameter.Precipitation = precip
	r.Properties.Parameter.Humidity = humidity
	return r
}

func TestFetchClimate_QueryParams(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "-6.2", q.Get("latitude"))
		assert.Equal(t, "106.8", q.Get("longitude"))
		assert.Equal(t, "PRECTOTCORR,RH2M", q.Get("parameters"))
		assert.Equal(t, "AG", q.Get("community"))
		assert.Equal(t, "JSON", q.Get("format"))
		assert.Equal(t, "20260301", q.Get("start"))
		assert.Equal(t, "20260331", q.Get("end"))

		require.NoError(t, json.NewEncoder(w).Encode(powerResponse(nil, nil)))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, clock).FetchClimate(context.Background(), -6.2, 106.8)
	require.NoError(t, err)
}

func TestFetchClimate_FloodIndexFromRainfall(t *testing.T) {
	// 30 days at 80mm/day sums to 2400mm, the 60-point bucket. Humidity 85
	// adds the +10 adjustment.
	precip := make(map[string]float64)
	humidity := make(map[string]float64)
	for i := 0; i < 30; i++ {
		day := time.Date(2026, time.March, 1+i, 0, 0, 0, 0, time.UTC).Format("20060102")
		precip[day] = 80
		humidity[day] = 85
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(powerResponse(precip, humidity)))
	}))
	defer srv.Close()

	sample, err := testClient(srv.URL, clockwork.NewFakeClock()).FetchClimate(context.Background(), -6.2, 106.8)
	require.NoError(t, err)

	assert.Equal(t, 70.0, sample.FloodIndex)
	assert.Equal(t, 2400.0, sample.AnnualRainfall)
	assert.Equal(t, 85.0, sample.AvgHumidity)
}

func TestFetchClimate_DryClimateLowIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(powerResponse(
			map[string]float64{"20260301": 2},
			map[string]float64{"20260301": 30},
		)))
	}))
	defer srv.Close()

	sample, err := testClient(srv.URL, clockwork.NewFakeClock()).FetchClimate(context.Background(), 25, -110)
	require.NoError(t, err)

	// Bucket 20 minus the dry-humidity adjustment.
	assert.Equal(t, 10.0, sample.FloodIndex)
}

func TestFetchClimate_MissingHumidityDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(powerResponse(map[string]float64{"20260301": 500}, nil)))
	}))
	defer srv.Close()

	sample, err := testClient(srv.URL, clockwork.NewFakeClock()).FetchClimate(context.Background(), 10, 10)
	require.NoError(t, err)

	assert.Equal(t, 50.0, sample.AvgHumidity)
	assert.Equal(t, 20.0, sample.FloodIndex)
}

func TestFetchClimate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, clockwork.NewFakeClock()).FetchClimate(context.Background(), 10, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestFetchClimate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(powerResponse(nil, nil)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL, clockwork.NewFakeClock()).FetchClimate(ctx, 10, 10)
	assert.Error(t, err)
}
