package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/infrastructure/metrics"
)

type stubClassifier struct{ err error }

func (s stubClassifier) PredictProbability(_ context.Context, v []model.FeatureVector) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return make([]float64, len(v)), nil
}

type stubDetector struct{}

func (stubDetector) DecisionScore(_ context.Context, v []model.FeatureVector) ([]float64, error) {
	return make([]float64, len(v)), nil
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	rec, err := metrics.NewRecorder(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ctx := context.Background()
	rec.RecordVerdict(ctx, "single", "SAFE")
	rec.RecordVerdict(ctx, "batch", "FRAUD")
	rec.RecordVerdict(ctx, "batch", "FRAUD")
	rec.RecordBatch(ctx, 250, 40*time.Millisecond)

	classifier := rec.InstrumentClassifier(stubClassifier{})
	_, err = classifier.PredictProbability(ctx, []model.FeatureVector{{}})
	require.NoError(t, err)

	failing := rec.InstrumentClassifier(stubClassifier{err: errors.New("down")})
	_, err = failing.PredictProbability(ctx, nil)
	require.Error(t, err)

	_, err = rec.InstrumentDetector(stubDetector{}).DecisionScore(ctx, []model.FeatureVector{{}})
	require.NoError(t, err)

	got := collect(t, reader)

	verdicts, ok := got["fraud_verdicts_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range verdicts.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, verdicts.DataPoints, 2)

	rows, ok := got["fraud_batch_rows"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, rows.DataPoints, 1)
	assert.Equal(t, int64(250), rows.DataPoints[0].Sum)

	latency, ok := got["fraud_provider_latency_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, latency.DataPoints, 2)

	errs, ok := got["fraud_provider_errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)
}
