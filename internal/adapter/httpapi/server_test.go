package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/land-risk-service/internal/cache"
	"github.com/couchcryptid/land-risk-service/internal/domain"
	"github.com/couchcryptid/land-risk-service/internal/engine"
	"github.com/couchcryptid/land-risk-service/internal/store"
)

// mockEvaluator satisfies Evaluator with canned responses.
type mockEvaluator struct {
	eval     domain.Evaluation
	evalErr  error
	readyErr error
}

func (m *mockEvaluator) Evaluate(_ context.Context, lat, lng float64) (domain.Evaluation, error) {
	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return domain.Evaluation{}, err
	}
	return m.eval, m.evalErr
}

func (m *mockEvaluator) EvaluateParcel(context.Context, string) (domain.Evaluation, error) {
	return m.eval, m.evalErr
}

func (m *mockEvaluator) CheckReadiness(context.Context) error { return m.readyErr }

func testServer(t *testing.T, ev Evaluator) (*Server, *store.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	eng := engine.New(cache.Nop{}, time.Hour, nil)
	return NewServer(":0", ev, st, eng, logger), st
}

func sampleEvaluation() domain.Evaluation {
	engineOut := domain.CalculateRisk(domain.Indices{Soil: 65, Flood: 40, Environmental: 70, Zoning: 50, Topography: 80})
	confOut := domain.CalculateConfidence(domain.QualityMetrics{Completeness: 1, Consistency: 0.8, Recency: 1})
	return domain.Evaluation{
		LocationSummary: domain.LocationSummary{
			LocationName: "Location 10.0000, 20.0000",
			ParcelID:     "parcel-1",
		},
		EngineOutput:     engineOut,
		ConfidenceOutput: confOut,
		Interpretation:   domain.FallbackInterpretation(engineOut, confOut, domain.ParcelMetadata{}),
	}
}

func doJSON(t *testing.T, srv *Server, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandleEvaluate_Success(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	rec := doJSON(t, srv, http.MethodPost, "/api/evaluate", `{"latitude": 10, "longitude": 20}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var eval domain.Evaluation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&eval))
	assert.Equal(t, "parcel-1", eval.LocationSummary.ParcelID)
	assert.InDelta(t, 58.75, eval.EngineOutput.RiskScore, 0.01)
}

func TestHandleEvaluate_MissingFields(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	rec := doJSON(t, srv, http.MethodPost, "/api/evaluate", `{"latitude": 10}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/evaluate", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluate_InvalidCoordinates(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	rec := doJSON(t, srv, http.MethodPost, "/api/evaluate", `{"latitude": 95, "longitude": 20}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid coordinate")
}

func TestHandleEvaluate_InternalError(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{evalErr: errors.New("boom")})

	rec := doJSON(t, srv, http.MethodPost, "/api/evaluate", `{"latitude": 10, "longitude": 20}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom", "internal detail is not leaked")
}

func TestHandleListParcels_Enriched(t *testing.T) {
	srv, st := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	p := &domain.ParcelSnapshot{
		LocationName:   "Seeded",
		Latitude:       10,
		Longitude:      20,
		LandArea:       1000,
		ZoningCategory: "Unknown",
		Indices:        domain.Indices{Soil: 65, Flood: 40, Environmental: 70, Zoning: 50, Topography: 80},
		Quality:        domain.QualityMetrics{Completeness: 1, Consistency: 0.8, Recency: 1},
	}
	require.NoError(t, st.Create(context.Background(), p))

	rec := doJSON(t, srv, http.MethodGet, "/api/parcels", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Parcels []parcelListing `json:"parcels"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Parcels, 1)
	assert.InDelta(t, 58.75, resp.Parcels[0].RiskScore, 0.01)
	assert.Equal(t, domain.ClassificationModerate, resp.Parcels[0].Classification)
}

func TestHandleListParcels_UserScoped(t *testing.T) {
	srv, st := testServer(t, &mockEvaluator{eval: sampleEvaluation()})
	ctx := context.Background()

	shared := &domain.ParcelSnapshot{LocationName: "Shared", ZoningCategory: "Unknown"}
	require.NoError(t, st.Create(ctx, shared))
	_, err := st.CloneForUser(ctx, shared.ID, "user-1")
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodGet, "/api/parcels", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Parcels []parcelListing `json:"parcels"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Parcels, 1)
	assert.Equal(t, "user-1", resp.Parcels[0].Parcel.UserID)
}

func TestHandleGetParcel_NotFound(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{evalErr: store.ErrNotFound})

	rec := doJSON(t, srv, http.MethodGet, "/api/parcels/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleClaimParcel(t *testing.T) {
	srv, st := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	p := &domain.ParcelSnapshot{LocationName: "Shared", ZoningCategory: "Unknown"}
	require.NoError(t, st.Create(context.Background(), p))

	rec := doJSON(t, srv, http.MethodPost, "/api/parcels/"+p.ID+"/claim", "", "user-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	var clone domain.ParcelSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&clone))
	assert.Equal(t, "user-1", clone.UserID)
	assert.NotEqual(t, p.ID, clone.ID)
}

func TestHandleClaimParcel_MissingUser(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	rec := doJSON(t, srv, http.MethodPost, "/api/parcels/some-id/claim", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportLifecycle(t *testing.T) {
	srv, st := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	p := &domain.ParcelSnapshot{LocationName: "Shared", ZoningCategory: "Unknown"}
	require.NoError(t, st.Create(context.Background(), p))

	rec := doJSON(t, srv, http.MethodPost, "/api/reports", `{"parcel_id": "`+p.ID+`"}`, "user-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created store.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.InDelta(t, 58.75, created.RiskScore, 0.01)

	rec = doJSON(t, srv, http.MethodGet, "/api/reports", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/"+created.ID, "", "user-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user cannot see it.
	rec = doJSON(t, srv, http.MethodGet, "/api/reports/"+created.ID, "", "user-2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReport_RequiresUserAndParcel(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	rec := doJSON(t, srv, http.MethodPost, "/api/reports", `{"parcel_id": "p"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/reports", `{}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{eval: sampleEvaluation()})

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_Unavailable(t *testing.T) {
	srv, _ := testServer(t, &mockEvaluator{readyErr: errors.New("db closed")})

	rec := doJSON(t, srv, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
