// Package metrics holds the OpenTelemetry instruments of the scoring path.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/port"
)

const instrumentationName = "github.com/bibbank/fraud-detection/internal/infrastructure/metrics"

// Recorder implements port.MetricsRecorder and times provider calls.
type Recorder struct {
	verdicts        metric.Int64Counter
	batchRows       metric.Int64Histogram
	batchDuration   metric.Float64Histogram
	providerLatency metric.Float64Histogram
	providerErrors  metric.Int64Counter
}

// NewRecorder creates every instrument on a meter of the given provider.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(instrumentationName)

	verdicts, err := meter.Int64Counter("fraud_verdicts_total",
		metric.WithDescription("Verdicts issued, by mode and status."))
	if err != nil {
		return nil, fmt.Errorf("failed to create verdict counter: %w", err)
	}
	batchRows, err := meter.Int64Histogram("fraud_batch_rows",
		metric.WithDescription("Rows per scored batch."),
		metric.WithExplicitBucketBoundaries(1, 10, 100, 1000, 10000, 100000, 1000000))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch size histogram: %w", err)
	}
	batchDuration, err := meter.Float64Histogram("fraud_batch_duration_seconds",
		metric.WithDescription("Wall time to score a batch."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch duration histogram: %w", err)
	}
	providerLatency, err := meter.Float64Histogram("fraud_provider_latency_seconds",
		metric.WithDescription("Latency of score provider calls."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider latency histogram: %w", err)
	}
	providerErrors, err := meter.Int64Counter("fraud_provider_errors_total",
		metric.WithDescription("Failed score provider calls."))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider error counter: %w", err)
	}

	return &Recorder{
		verdicts:        verdicts,
		batchRows:       batchRows,
		batchDuration:   batchDuration,
		providerLatency: providerLatency,
		providerErrors:  providerErrors,
	}, nil
}

// RecordVerdict counts one verdict.
func (r *Recorder) RecordVerdict(ctx context.Context, mode, status string) {
	r.verdicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	))
}

// RecordBatch records the size and duration of a scored batch.
func (r *Recorder) RecordBatch(ctx context.Context, rows int, elapsed time.Duration) {
	r.batchRows.Record(ctx, int64(rows))
	r.batchDuration.Record(ctx, elapsed.Seconds())
}

func (r *Recorder) observeProvider(ctx context.Context, provider string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	r.providerLatency.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		r.providerErrors.Add(ctx, 1, attrs)
	}
}

// InstrumentClassifier times every call of c.
func (r *Recorder) InstrumentClassifier(c port.Classifier) port.Classifier {
	return &timedClassifier{next: c, rec: r}
}

// InstrumentDetector times every call of d.
func (r *Recorder) InstrumentDetector(d port.AnomalyDetector) port.AnomalyDetector {
	return &timedDetector{next: d, rec: r}
}

type timedClassifier struct {
	next port.Classifier
	rec  *Recorder
}

func (t *timedClassifier) PredictProbability(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	start := time.Now()
	out, err := t.next.PredictProbability(ctx, vectors)
	t.rec.observeProvider(ctx, "classifier", start, err)
	return out, err
}

type timedDetector struct {
	next port.AnomalyDetector
	rec  *Recorder
}

func (t *timedDetector) DecisionScore(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	start := time.Now()
	out, err := t.next.DecisionScore(ctx, vectors)
	t.rec.observeProvider(ctx, "detector", start, err)
	return out, err
}
