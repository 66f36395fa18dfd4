package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/bibbank/profileguard/internal/domain/model"
)

const meterName = "github.com/bibbank/profileguard"

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// InitMetrics wires an OpenTelemetry MeterProvider to a Prometheus registry
// and returns the handler that serves it.
func InitMetrics(_ MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return provider, handler, nil
}

// AssessmentMetrics implements port.MetricsRecorder with OTel instruments.
type AssessmentMetrics struct {
	assessments metric.Int64Counter
	degraded    metric.Int64Counter
	qualitative metric.Int64Counter
	score       metric.Float64Histogram
	duration    metric.Float64Histogram
}

// NewAssessmentMetrics registers the assessment instruments on provider.
func NewAssessmentMetrics(provider metric.MeterProvider) (*AssessmentMetrics, error) {
	meter := provider.Meter(meterName)

	assessments, err := meter.Int64Counter("profileguard.assessments",
		metric.WithDescription("Completed assessments by prediction and confidence band."))
	if err != nil {
		return nil, err
	}
	degraded, err := meter.Int64Counter("profileguard.classifier.degraded",
		metric.WithDescription("Assessments scored without the classifier."))
	if err != nil {
		return nil, err
	}
	qualitative, err := meter.Int64Counter("profileguard.qualitative.outcomes",
		metric.WithDescription("Qualitative analysis outcomes by status and failure reason."))
	if err != nil {
		return nil, err
	}
	score, err := meter.Float64Histogram("profileguard.combined_score",
		metric.WithDescription("Distribution of combined risk scores."),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.45, 0.5, 0.55, 0.6, 0.7, 0.8, 0.9, 1))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("profileguard.assessment.duration",
		metric.WithDescription("End-to-end assessment latency."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &AssessmentMetrics{
		assessments: assessments,
		degraded:    degraded,
		qualitative: qualitative,
		score:       score,
		duration:    duration,
	}, nil
}

// RecordAssessment records one finalized assessment.
func (m *AssessmentMetrics) RecordAssessment(ctx context.Context, a *model.RiskAssessment, d time.Duration) {
	m.assessments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("prediction", a.Prediction().String()),
		attribute.String("confidence", a.ConfidenceBand().String()),
		attribute.String("policy_version", a.PolicyVersion()),
	))
	if !a.ClassifierAvailable() {
		m.degraded.Add(ctx, 1)
	}
	q := a.Qualitative()
	m.qualitative.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(q.Status())),
		attribute.String("reason", string(q.Reason())),
	))
	m.score.Record(ctx, a.CombinedScore())
	m.duration.Record(ctx, d.Seconds())
}
