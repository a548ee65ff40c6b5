package observability

import (
	"context"
	"testing"
)

func TestTranslateMetricsFromContextRoundTrips(t *testing.T) {
	metrics := &TranslateMetrics{}
	ctx := ContextWithTranslateMetrics(context.Background(), metrics)
	if got := TranslateMetricsFromContext(ctx); got != metrics {
		t.Errorf("TranslateMetricsFromContext() = %p, want %p", got, metrics)
	}
}

func TestTranslateMetricsFromContextMissing(t *testing.T) {
	if got := TranslateMetricsFromContext(context.Background()); got != nil {
		t.Errorf("TranslateMetricsFromContext() = %v, want nil", got)
	}
}

func TestTranslateMetricsFromContextNilContext(t *testing.T) {
	if got := TranslateMetricsFromContext(nil); got != nil {
		t.Errorf("TranslateMetricsFromContext(nil) = %v, want nil", got)
	}
}

func TestContextWithTranslateMetricsNilContext(t *testing.T) {
	metrics := &TranslateMetrics{}
	ctx := ContextWithTranslateMetrics(nil, metrics)
	if got := TranslateMetricsFromContext(ctx); got != metrics {
		t.Errorf("TranslateMetricsFromContext() = %p, want %p", got, metrics)
	}
}
