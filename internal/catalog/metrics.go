package catalog

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "limitedtees.shop/storefront/internal/catalog"

type loadInstruments struct {
	duration  metric.Float64Histogram
	fallbacks metric.Int64Counter
	ok        bool
}

var (
	instrumentsOnce sync.Once
	instruments     loadInstruments
)

// loadMetrics registers the lifecycle instruments on the global meter
// provider the first time it is called.
func loadMetrics(logger *zap.Logger) loadInstruments {
	instrumentsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(metricNamespace)
		duration, durErr := meter.Float64Histogram(
			"catalog.load.duration",
			metric.WithUnit("ms"),
			metric.WithDescription("Time until both collections settled"),
		)
		fallbacks, fbErr := meter.Int64Counter(
			"catalog.load.fallbacks",
			metric.WithDescription("Collections replaced by sample or empty data"),
		)
		if durErr != nil || fbErr != nil {
			logger.Warn("catalog: unable to register metrics", zap.NamedError("duration", durErr), zap.NamedError("fallbacks", fbErr))
			return
		}
		instruments = loadInstruments{duration: duration, fallbacks: fallbacks, ok: true}
	})
	return instruments
}

func (m loadInstruments) recordDuration(ctx context.Context, start time.Time) {
	if !m.ok {
		return
	}
	m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
}

// recordFallback counts one substituted collection; reason is "shape",
// "empty" or "network".
func (m loadInstruments) recordFallback(ctx context.Context, collection, reason string) {
	if !m.ok {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("reason", reason),
	))
}
