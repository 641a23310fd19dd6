// Package aggregate fans out to the four external sources and folds their
// results into the five sub-indices.
//
// This is the central resilience boundary: every source failure is absorbed
// into a neutral default and an offline flag, so aggregation always yields a
// complete, usable (possibly degraded) result. No partial failure aborts the
// whole fetch.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/land-risk-service/internal/adapter/nasapower"
	"github.com/couchcryptid/land-risk-service/internal/adapter/openelev"
	"github.com/couchcryptid/land-risk-service/internal/adapter/soil"
	"github.com/couchcryptid/land-risk-service/internal/adapter/usgs"
	"github.com/couchcryptid/land-risk-service/internal/domain"
	"github.com/couchcryptid/land-risk-service/internal/observability"
)

// neutralIndex substitutes for any sub-index whose source failed.
const neutralIndex = 50

// zoningIndex is fixed: no live zoning source exists, so the index is a
// constant with no provenance entry.
const zoningIndex = 50

// Result is one complete aggregation. Indices are always fully populated.
// Sources lists the identifiers that succeeded, in fixed source order;
// Offline is set when any source substituted its default. Quality is the
// data-quality score derived from source coverage.
type Result struct {
	Indices domain.Indices
	Offline bool
	Sources []string
	Quality float64

	// Raw samples from the sources that succeeded, for transparency surfaces.
	Soil      domain.SoilSample
	Climate   domain.ClimateSample
	Seismic   domain.SeismicSample
	Elevation domain.ElevationSample
}

// outcome tags one source fetch: either a successful value with its source
// id, or a fallback to the neutral default.
type outcome struct {
	index  float64
	source string
	ok     bool
}

// Aggregator coordinates the four source adapters.
type Aggregator struct {
	soil      domain.SoilSource
	climate   domain.ClimateSource
	seismic   domain.SeismicSource
	elevation domain.ElevationSource

	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Aggregator. timeout bounds each individual source call;
// a source exceeding it is treated as failed without affecting its siblings.
func New(
	soilSrc domain.SoilSource,
	climateSrc domain.ClimateSource,
	seismicSrc domain.SeismicSource,
	elevationSrc domain.ElevationSource,
	timeout time.Duration,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Aggregator {
	return &Aggregator{
		soil:      soilSrc,
		climate:   climateSrc,
		seismic:   seismicSrc,
		elevation: elevationSrc,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Aggregate fetches all four sources concurrently and folds the outcomes.
// Each goroutine writes only its own slot, so no synchronization beyond the
// group wait is needed.
func (a *Aggregator) Aggregate(ctx context.Context, lat, lng float64) Result {
	var res Result

	var soilOut, climateOut, seismicOut, elevationOut outcome

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sample, err := fetchOne(ctx, a, soil.SourceID, func(ctx context.Context) (domain.SoilSample, error) {
			return a.soil.FetchSoil(ctx, lat, lng)
		})
		if err != nil {
			soilOut = outcome{index: neutralIndex}
			return nil
		}
		res.Soil = sample
		soilOut = outcome{index: sample.SoilIndex, source: soil.SourceID, ok: true}
		return nil
	})

	g.Go(func() error {
		sample, err := fetchOne(ctx, a, nasapower.SourceID, func(ctx context.Context) (domain.ClimateSample, error) {
			return a.climate.FetchClimate(ctx, lat, lng)
		})
		if err != nil {
			climateOut = outcome{index: neutralIndex}
			return nil
		}
		res.Climate = sample
		climateOut = outcome{index: sample.FloodIndex, source: nasapower.SourceID, ok: true}
		return nil
	})

	g.Go(func() error {
		sample, err := fetchOne(ctx, a, usgs.SourceID, func(ctx context.Context) (domain.SeismicSample, error) {
			return a.seismic.FetchSeismic(ctx, lat, lng)
		})
		if err != nil {
			seismicOut = outcome{index: neutralIndex}
			return nil
		}
		res.Seismic = sample
		// Environmental is the inverse: less seismic activity is better.
		seismicOut = outcome{index: domain.ClampIndex(100 - sample.SeismicIndex), source: usgs.SourceID, ok: true}
		return nil
	})

	g.Go(func() error {
		sample, err := fetchOne(ctx, a, openelev.SourceID, func(ctx context.Context) (domain.ElevationSample, error) {
			return a.elevation.FetchElevation(ctx, lat, lng)
		})
		if err != nil {
			elevationOut = outcome{index: neutralIndex}
			return nil
		}
		res.Elevation = sample
		elevationOut = outcome{index: sample.TopographyIndex, source: openelev.SourceID, ok: true}
		return nil
	})

	_ = g.Wait() // goroutines never return errors; failures fold into outcomes

	res.Indices = domain.Indices{
		Soil:          soilOut.index,
		Flood:         climateOut.index,
		Environmental: seismicOut.index,
		Zoning:        zoningIndex,
		Topography:    elevationOut.index,
	}

	res.Sources = make([]string, 0, 4)
	for _, o := range []outcome{soilOut, climateOut, seismicOut, elevationOut} {
		if o.ok {
			res.Sources = append(res.Sources, o.source)
		} else {
			res.Offline = true
		}
	}
	res.Quality = DataQuality(len(res.Sources), res.Offline)

	if res.Offline {
		a.metrics.OfflineEvaluations.Inc()
	}
	a.logger.Info("aggregation complete",
		"lat", lat, "lng", lng,
		"sources", res.Sources,
		"offline", res.Offline,
		"quality", res.Quality,
	)

	return res
}

// fetchOne runs a single source call under the per-source timeout and records
// its metrics. The returned error has already been logged.
func fetchOne[T any](ctx context.Context, a *Aggregator, source string, fetch func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	sample, err := fetch(callCtx)
	a.metrics.SourceDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		a.metrics.SourceRequests.WithLabelValues(source, "error").Inc()
		a.logger.Warn("source fetch failed, using default", "source", source, "error", err)
		return sample, err
	}

	a.metrics.SourceRequests.WithLabelValues(source, "success").Inc()
	return sample, nil
}

// DataQuality scores source coverage: a fixed 0.5 when offline, otherwise
// 0.7 plus up to 0.3 proportional to successful sources.
func DataQuality(successfulSources int, offline bool) float64 {
	if offline {
		return 0.5
	}
	return 0.7 + 0.3*(float64(successfulSources)/4)
}
