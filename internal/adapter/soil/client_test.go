package soil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

func testClient() *Client {
	return NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchSoil_Regions(t *testing.T) {
	tests := []struct {
		name      string
		lat, lng  float64
		wantIndex float64
		wantPH    float64
	}{
		{"Jakarta is tropical", -6.2, 106.8, 55, 5.8},
		{"Lisbon is Mediterranean", 38.7, -9.1, 65, 7.2},
		{"Denver is North-American temperate", 39.7, -105.0, 68, 6.5},
		{"Wellington falls through to default", -41.3, 174.8, 50, 6.5},
		{"ocean point falls through to default", 0, -150, 50, 6.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := testClient().FetchSoil(context.Background(), tt.lat, tt.lng)
			require.NoError(t, err)

			assert.Equal(t, tt.wantIndex, sample.SoilIndex)
			assert.Equal(t, tt.wantPH, sample.PHLevel)
		})
	}
}

func TestFetchSoil_InvalidCoordinates(t *testing.T) {
	_, err := testClient().FetchSoil(context.Background(), 91, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestFetchSoil_ProfileFieldsPopulated(t *testing.T) {
	sample, err := testClient().FetchSoil(context.Background(), -6.2, 106.8)
	require.NoError(t, err)

	assert.Equal(t, 35.0, sample.ClayContent)
	assert.Equal(t, 35.0, sample.SandContent)
	assert.Equal(t, 3.2, sample.OrganicCarbon)
}
