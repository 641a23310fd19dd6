// Package httpapi exposes the evaluation service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/land-risk-service/internal/domain"
	"github.com/couchcryptid/land-risk-service/internal/engine"
	"github.com/couchcryptid/land-risk-service/internal/store"
)

// userHeader carries the caller identity. The API trusts it as-is; putting
// real authentication in front is a deployment concern.
const userHeader = "X-User-ID"

// Evaluator is the orchestration surface the handlers need.
type Evaluator interface {
	Evaluate(ctx context.Context, lat, lng float64) (domain.Evaluation, error)
	EvaluateParcel(ctx context.Context, id string) (domain.Evaluation, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the evaluation API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	evaluator  Evaluator
	store      *store.Store
	engine     *engine.Engine
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, evaluator Evaluator, st *store.Store, eng *engine.Engine, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		evaluator: evaluator,
		store:     st,
		engine:    eng,
		logger:    logger,
	}

	mux.HandleFunc("POST /api/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /api/parcels", s.handleListParcels)
	mux.HandleFunc("GET /api/parcels/{id}", s.handleGetParcel)
	mux.HandleFunc("POST /api/parcels/{id}/claim", s.handleClaimParcel)
	mux.HandleFunc("POST /api/reports", s.handleCreateReport)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type evaluateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	eval, err := s.evaluator.Evaluate(r.Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		s.writeDomainError(w, r, err, "evaluate failed")
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

// parcelListing is one row of the enriched parcel list: the stored snapshot
// plus recomputed scores so stale rows still show current model output.
type parcelListing struct {
	Parcel          domain.ParcelSnapshot `json:"parcel"`
	RiskScore       float64               `json:"risk_score"`
	Classification  string                `json:"classification"`
	DominantFactor  string                `json:"dominant_factor"`
	ConfidenceScore float64               `json:"confidence_score"`
	LowIntegrity    bool                  `json:"low_integrity"`
}

func (s *Server) handleListParcels(w http.ResponseWriter, r *http.Request) {
	var (
		parcels []domain.ParcelSnapshot
		err     error
	)
	if userID := r.Header.Get(userHeader); userID != "" {
		parcels, err = s.store.ListByUser(r.Context(), userID)
	} else {
		parcels, err = s.store.FindAll(r.Context())
	}
	if err != nil {
		s.writeDomainError(w, r, err, "list parcels failed")
		return
	}

	listings := make([]parcelListing, len(parcels))
	for i, p := range parcels {
		risk := s.engine.Risk(p.Indices)
		conf := s.engine.Confidence(p.Quality)
		listings[i] = parcelListing{
			Parcel:          p,
			RiskScore:       risk.RiskScore,
			Classification:  risk.Classification,
			DominantFactor:  risk.DominantFactor,
			ConfidenceScore: conf.ConfidenceScore,
			LowIntegrity:    conf.LowIntegrity,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"parcels": listings})
}

func (s *Server) handleGetParcel(w http.ResponseWriter, r *http.Request) {
	eval, err := s.evaluator.EvaluateParcel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err, "get parcel failed")
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleClaimParcel(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, userHeader+" header is required")
		return
	}

	clone, err := s.store.CloneForUser(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.writeDomainError(w, r, err, "claim parcel failed")
		return
	}
	writeJSON(w, http.StatusCreated, clone)
}

type createReportRequest struct {
	ParcelID string `json:"parcel_id"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, userHeader+" header is required")
		return
	}

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ParcelID == "" {
		writeError(w, http.StatusBadRequest, "parcel_id is required")
		return
	}

	eval, err := s.evaluator.EvaluateParcel(r.Context(), req.ParcelID)
	if err != nil {
		s.writeDomainError(w, r, err, "create report failed")
		return
	}

	report := reportFromEvaluation(userID, req.ParcelID, eval)
	if err := s.store.CreateReport(r.Context(), report); err != nil {
		s.writeDomainError(w, r, err, "create report failed")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, userHeader+" header is required")
		return
	}

	reports, err := s.store.ListReports(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err, "list reports failed")
		return
	}
	if reports == nil {
		reports = []store.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, userHeader+" header is required")
		return
	}

	report, err := s.store.GetReport(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.writeDomainError(w, r, err, "get report failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.evaluator.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// reportFromEvaluation freezes an evaluation into a report row.
func reportFromEvaluation(userID, parcelID string, eval domain.Evaluation) *store.Report {
	return &store.Report{
		UserID:   userID,
		ParcelID: parcelID,

		LocationName:   eval.LocationSummary.LocationName,
		Coordinates:    eval.LocationSummary.Coordinates,
		LandArea:       eval.LocationSummary.LandArea,
		ZoningCategory: eval.LocationSummary.ZoningCategory,
		DataSource:     eval.Metadata.DataSource,

		RiskScore:       eval.EngineOutput.RiskScore,
		Classification:  eval.EngineOutput.Classification,
		DominantFactor:  eval.EngineOutput.DominantFactor,
		FactorBreakdown: eval.EngineOutput.FactorBreakdown,

		ConfidenceScore:   eval.ConfidenceOutput.ConfidenceScore,
		CompletenessScore: eval.ConfidenceOutput.CompletenessScore,
		ConsistencyScore:  eval.ConfidenceOutput.ConsistencyScore,
		RecencyScore:      eval.ConfidenceOutput.RecencyScore,
		LowIntegrity:      eval.ConfidenceOutput.LowIntegrity,

		Summary:           eval.Interpretation.Summary,
		KeyObservations:   eval.Interpretation.KeyObservations,
		RecommendedAction: eval.Interpretation.RecommendedAction,
		Limitations:       eval.Interpretation.Limitations,
	}
}

// writeDomainError maps domain and store errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error(msg, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
