// Package pipeline orchestrates a parcel evaluation end to end:
// validate → geospatial cache lookup → aggregation on miss → risk and
// confidence engines → interpretation → persistence and publication.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/land-risk-service/internal/aggregate"
	"github.com/couchcryptid/land-risk-service/internal/domain"
	"github.com/couchcryptid/land-risk-service/internal/engine"
	"github.com/couchcryptid/land-risk-service/internal/observability"
	"github.com/couchcryptid/land-risk-service/internal/store"
)

// Defaults for snapshots created from aggregation alone, before any richer
// parcel metadata exists.
const (
	defaultLandArea       = 1000
	defaultZoningCategory = "Unknown"
	defaultSourceLabel    = "external_api"
)

// ParcelStore is the persistence surface the evaluator needs.
type ParcelStore interface {
	FindCached(ctx context.Context, lat, lng, toleranceKm float64) (*domain.ParcelSnapshot, error)
	FindByID(ctx context.Context, id string) (*domain.ParcelSnapshot, error)
	FindNearest(ctx context.Context, lat, lng float64) (*domain.ParcelSnapshot, float64, error)
	Create(ctx context.Context, p *domain.ParcelSnapshot) error
	Ping(ctx context.Context) error
}

// Aggregator fetches and folds the external sources.
type Aggregator interface {
	Aggregate(ctx context.Context, lat, lng float64) aggregate.Result
}

// EvaluationPublisher emits completed evaluations to a downstream sink.
type EvaluationPublisher interface {
	PublishEvaluation(ctx context.Context, eval domain.Evaluation) error
}

// Evaluator is the single orchestration entry point for the core.
type Evaluator struct {
	store       ParcelStore
	aggregator  Aggregator
	engine      *engine.Engine
	interpreter domain.Interpreter  // nil disables the external service
	publisher   EvaluationPublisher // nil disables publication

	toleranceKm float64
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates an Evaluator. interpreter and publisher may be nil; evaluation
// then uses the deterministic fallback narrative and skips publication.
func New(
	st ParcelStore,
	agg Aggregator,
	eng *engine.Engine,
	interpreter domain.Interpreter,
	publisher EvaluationPublisher,
	toleranceKm float64,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Evaluator {
	return &Evaluator{
		store:       st,
		aggregator:  agg,
		engine:      eng,
		interpreter: interpreter,
		publisher:   publisher,
		toleranceKm: toleranceKm,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
	}
}

// SetClock swaps the time source. Pass nil to reset to real time.
func (e *Evaluator) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	e.clock = c
}

// CheckReadiness reports whether the evaluator can serve traffic.
func (e *Evaluator) CheckReadiness(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	return nil
}

// Evaluate scores the parcel at (lat, lng). The only hard failures are
// invalid coordinates and persistence errors; source and interpretation
// failures degrade into defaults and the fallback narrative.
func (e *Evaluator) Evaluate(ctx context.Context, lat, lng float64) (domain.Evaluation, error) {
	start := time.Now()

	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return domain.Evaluation{}, err
	}

	snapshot, err := e.store.FindCached(ctx, lat, lng, e.toleranceKm)
	cacheHit := err == nil
	switch {
	case err == nil:
		e.metrics.ParcelCacheLookups.WithLabelValues("hit").Inc()
		e.logger.Debug("parcel cache hit", "parcel_id", snapshot.ID, "lat", lat, "lng", lng)
	case errors.Is(err, store.ErrNotFound):
		e.metrics.ParcelCacheLookups.WithLabelValues("miss").Inc()
		snapshot, err = e.fetchAndPersist(ctx, lat, lng)
		if err != nil {
			return domain.Evaluation{}, err
		}
	default:
		return domain.Evaluation{}, fmt.Errorf("cache lookup: %w", err)
	}

	eval := e.evaluateSnapshot(ctx, snapshot, cacheHit)

	if e.publisher != nil {
		if err := e.publisher.PublishEvaluation(ctx, eval); err != nil {
			e.logger.Warn("evaluation publish failed", "parcel_id", snapshot.ID, "error", err)
		}
	}

	e.metrics.EvaluationsTotal.Inc()
	e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	return eval, nil
}

// EvaluateParcel re-scores an already-stored snapshot without touching any
// external source.
func (e *Evaluator) EvaluateParcel(ctx context.Context, id string) (domain.Evaluation, error) {
	snapshot, err := e.store.FindByID(ctx, id)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return e.evaluateSnapshot(ctx, snapshot, true), nil
}

// Nearest returns the stored parcel closest to (lat, lng) in degree space
// and the distance in degrees. No freshness filter applies.
func (e *Evaluator) Nearest(ctx context.Context, lat, lng float64) (*domain.ParcelSnapshot, float64, error) {
	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return nil, 0, err
	}
	return e.store.FindNearest(ctx, lat, lng)
}

// fetchAndPersist aggregates the external sources into a new shared snapshot
// and writes it. Persistence errors are hard failures.
func (e *Evaluator) fetchAndPersist(ctx context.Context, lat, lng float64) (*domain.ParcelSnapshot, error) {
	res := e.aggregator.Aggregate(ctx, lat, lng)

	label := defaultSourceLabel
	if len(res.Sources) > 0 {
		label = strings.Join(res.Sources, ", ")
	}

	snapshot := &domain.ParcelSnapshot{
		LocationName:   fmt.Sprintf("Location %.4f, %.4f", lat, lng),
		Latitude:       lat,
		Longitude:      lng,
		LandArea:       defaultLandArea,
		ZoningCategory: defaultZoningCategory,
		Indices:        res.Indices,
		Quality: domain.QualityMetrics{
			Completeness: res.Quality,
			Consistency:  0.8,
			Recency:      1.0,
		},
		DataSourceLabel: label,
		OfflineMode:     res.Offline,
	}

	if err := e.store.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	return snapshot, nil
}

func (e *Evaluator) evaluateSnapshot(ctx context.Context, p *domain.ParcelSnapshot, cacheHit bool) domain.Evaluation {
	engineOut := e.engine.Risk(p.Indices)
	confOut := e.engine.Confidence(p.Quality)

	meta := domain.ParcelMetadata{
		LocationName:   p.LocationName,
		Coordinates:    p.Coordinates(),
		LandArea:       p.LandArea,
		ZoningCategory: p.ZoningCategory,
	}

	interp := e.interpret(ctx, domain.InterpretRequest{
		EngineOutput:     engineOut,
		ConfidenceOutput: confOut,
		ParcelMetadata:   meta,
	})

	return domain.Evaluation{
		LocationSummary: domain.LocationSummary{
			LocationName:   p.LocationName,
			Coordinates:    p.Coordinates(),
			LandArea:       p.LandArea,
			ZoningCategory: p.ZoningCategory,
			ParcelID:       p.ID,
		},
		EngineOutput:     engineOut,
		ConfidenceOutput: confOut,
		Interpretation:   interp,
		Metadata: domain.EvaluationMetadata{
			DataSource:  p.DataSourceLabel,
			Sources:     sourcesFromLabel(p.DataSourceLabel),
			OfflineMode: p.OfflineMode,
			CacheHit:    cacheHit,
			LastUpdated: p.LastUpdated,
			EvaluatedAt: e.clock.Now().UTC(),
		},
	}
}

// interpret tries the external service once; any failure falls through
// silently to the deterministic template. The engine outputs are already
// final at this point, so nothing is retried or recomputed.
func (e *Evaluator) interpret(ctx context.Context, req domain.InterpretRequest) domain.InterpretationResult {
	if e.interpreter != nil {
		result, err := e.interpreter.Interpret(ctx, req)
		if err == nil {
			e.metrics.InterpretRequests.WithLabelValues("external").Inc()
			return result
		}
		e.logger.Warn("interpretation service failed, using fallback", "error", err)
	}

	e.metrics.InterpretRequests.WithLabelValues("fallback").Inc()
	return domain.FallbackInterpretation(req.EngineOutput, req.ConfidenceOutput, req.ParcelMetadata)
}

func sourcesFromLabel(label string) []string {
	if label == "" || label == defaultSourceLabel {
		return nil
	}
	return strings.Split(label, ", ")
}
