// Package engine wraps the pure domain calculations with memoization.
package engine

import (
	"fmt"
	"time"

	"github.com/couchcryptid/land-risk-service/internal/cache"
	"github.com/couchcryptid/land-risk-service/internal/domain"
	"github.com/couchcryptid/land-risk-service/internal/observability"
)

// Engine memoizes risk and confidence calculations by exact input tuple.
// Keys use %g formatting, so inputs differing only in floating noise are
// distinct entries; that duplication is accepted because recomputation is
// cheap and deterministic.
type Engine struct {
	memo    cache.Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

// New creates an Engine over the given memo cache. Pass cache.Nop{} to
// disable memoization. metrics may be nil.
func New(memo cache.Cache, ttl time.Duration, metrics *observability.Metrics) *Engine {
	return &Engine{memo: memo, ttl: ttl, metrics: metrics}
}

// Risk returns the memoized risk calculation for the given indices.
func (e *Engine) Risk(ind domain.Indices) domain.RiskEngineOutput {
	key := fmt.Sprintf("risk:%g:%g:%g:%g:%g",
		ind.Soil, ind.Flood, ind.Environmental, ind.Zoning, ind.Topography)

	if v, ok := e.memo.Get(key); ok {
		if out, ok := v.(domain.RiskEngineOutput); ok {
			e.record("risk", "hit")
			return out
		}
	}
	e.record("risk", "miss")

	out := domain.CalculateRisk(ind)
	e.memo.Set(key, out, e.ttl)
	return out
}

// Confidence returns the memoized confidence calculation for the given metrics.
func (e *Engine) Confidence(m domain.QualityMetrics) domain.ConfidenceOutput {
	key := fmt.Sprintf("confidence:%g:%g:%g", m.Completeness, m.Consistency, m.Recency)

	if v, ok := e.memo.Get(key); ok {
		if out, ok := v.(domain.ConfidenceOutput); ok {
			e.record("confidence", "hit")
			return out
		}
	}
	e.record("confidence", "miss")

	out := domain.CalculateConfidence(m)
	e.memo.Set(key, out, e.ttl)
	return out
}

func (e *Engine) record(engineName, result string) {
	if e.metrics != nil {
		e.metrics.MemoLookups.WithLabelValues(engineName, result).Inc()
	}
}
