package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TranslateMetrics holds metrics describing Translate calls.
type TranslateMetrics struct {
	duration     metric.Float64Histogram
	total        metric.Int64Counter
	errors       metric.Int64Counter
	paramCount   metric.Int64Histogram
	lateralJoins metric.Int64Histogram
}

// InitTranslateMetrics initializes the translator's metrics instruments.
func InitTranslateMetrics() (*TranslateMetrics, error) {
	meter := otel.Meter("gql2sql")

	duration, err := meter.Float64Histogram(
		"gql2sql.translate.duration",
		metric.WithDescription("Duration of Translate calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate duration histogram: %w", err)
	}

	total, err := meter.Int64Counter(
		"gql2sql.translate.total",
		metric.WithDescription("Total number of Translate calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate total counter: %w", err)
	}

	errors, err := meter.Int64Counter(
		"gql2sql.translate.errors",
		metric.WithDescription("Total number of Translate calls that returned an error, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate errors counter: %w", err)
	}

	paramCount, err := meter.Int64Histogram(
		"gql2sql.translate.params",
		metric.WithDescription("Number of positional parameters in the emitted SQL"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create param count histogram: %w", err)
	}

	lateralJoins, err := meter.Int64Histogram(
		"gql2sql.translate.lateral_joins",
		metric.WithDescription("Number of LATERAL joins emitted for a translation"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lateral join histogram: %w", err)
	}

	return &TranslateMetrics{
		duration:     duration,
		total:        total,
		errors:       errors,
		paramCount:   paramCount,
		lateralJoins: lateralJoins,
	}, nil
}

// RecordSuccess records a successful translation.
func (m *TranslateMetrics) RecordSuccess(ctx context.Context, duration time.Duration, paramCount, lateralJoinCount int) {
	m.duration.Record(ctx, float64(duration.Microseconds())/1000.0)
	m.total.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", true)))
	m.paramCount.Record(ctx, int64(paramCount))
	m.lateralJoins.Record(ctx, int64(lateralJoinCount))
}

// RecordError records a failed translation, tagged by error kind.
func (m *TranslateMetrics) RecordError(ctx context.Context, duration time.Duration, kind string) {
	m.duration.Record(ctx, float64(duration.Microseconds())/1000.0)
	m.total.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", false)))
	m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// InitMetrics initializes translate metrics and logs readiness.
func InitMetrics(logger *slog.Logger) (*TranslateMetrics, error) {
	metrics, err := InitTranslateMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize translate metrics: %w", err)
	}
	logger.Info("translate metrics initialized")
	return metrics, nil
}

type translateMetricsContextKey struct{}

// ContextWithTranslateMetrics stores translate metrics in the provided context.
func ContextWithTranslateMetrics(ctx context.Context, metrics *TranslateMetrics) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, translateMetricsContextKey{}, metrics)
}

// TranslateMetricsFromContext retrieves translate metrics from the context.
func TranslateMetricsFromContext(ctx context.Context) *TranslateMetrics {
	if ctx == nil {
		return nil
	}
	metrics, _ := ctx.Value(translateMetricsContextKey{}).(*TranslateMetrics)
	return metrics
}
