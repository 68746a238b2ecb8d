package rest_test

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bibbank/fraud-detection/internal/application/usecase"
	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/port"
	"github.com/bibbank/fraud-detection/internal/domain/service"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
	"github.com/bibbank/fraud-detection/internal/infrastructure/csvtable"
	"github.com/bibbank/fraud-detection/internal/presentation/rest"
	"github.com/bibbank/fraud-detection/pkg/events"
	"github.com/bibbank/fraud-detection/pkg/testutil"
)

// --- Mock implementations ---

type mockClassifier struct {
	predictFunc func(ctx context.Context, v []model.FeatureVector) ([]float64, error)
}

func (m *mockClassifier) PredictProbability(ctx context.Context, v []model.FeatureVector) ([]float64, error) {
	return m.predictFunc(ctx, v)
}

type mockDetector struct {
	scoreFunc func(ctx context.Context, v []model.FeatureVector) ([]float64, error)
}

func (m *mockDetector) DecisionScore(ctx context.Context, v []model.FeatureVector) ([]float64, error) {
	return m.scoreFunc(ctx, v)
}

type mockProviders struct {
	classifier port.Classifier
	detector   port.AnomalyDetector
}

func (m *mockProviders) Providers() (port.Classifier, port.AnomalyDetector, error) {
	if m.classifier == nil || m.detector == nil {
		return nil, nil, model.ErrProvidersUnavailable
	}
	return m.classifier, m.detector, nil
}

func (m *mockProviders) Ready() bool {
	return m.classifier != nil && m.detector != nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...events.DomainEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordVerdict(context.Context, string, string)   {}
func (nopMetrics) RecordBatch(context.Context, int, time.Duration) {}

// constant returns a score func that answers v for every row.
func constant(v float64) func(context.Context, []model.FeatureVector) ([]float64, error) {
	return func(_ context.Context, rows []model.FeatureVector) ([]float64, error) {
		out := make([]float64, len(rows))
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
}

// byAmount returns a score func that answers f(amount) per row.
func byAmount(f func(amount float64) float64) func(context.Context, []model.FeatureVector) ([]float64, error) {
	return func(_ context.Context, rows []model.FeatureVector) ([]float64, error) {
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = f(r.Amount)
		}
		return out, nil
	}
}

func failing(err error) func(context.Context, []model.FeatureVector) ([]float64, error) {
	return func(context.Context, []model.FeatureVector) ([]float64, error) {
		return nil, err
	}
}

func providersWith(
	classify func(context.Context, []model.FeatureVector) ([]float64, error),
	detect func(context.Context, []model.FeatureVector) ([]float64, error),
) *mockProviders {
	return &mockProviders{
		classifier: &mockClassifier{predictFunc: classify},
		detector:   &mockDetector{scoreFunc: detect},
	}
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return testutil.DiscardLogger()
}

func newMux(providers *mockProviders, opts rest.HandlerOptions) *http.ServeMux {
	engine := service.NewDecisionEngine()
	labels := valueobject.DefaultDetectorLabels()

	predict := usecase.NewPredictTransaction(providers, engine, nopPublisher{}, nopMetrics{}, labels, testLogger())
	scoreBatch := usecase.NewScoreBatch(providers, csvtable.NewReader(), service.NewBatchIngestor(), engine,
		nopPublisher{}, nopMetrics{}, usecase.BatchOptions{Workers: 2, ChunkSize: 2}, testLogger())

	mux := http.NewServeMux()
	rest.NewHandler(predict, scoreBatch, labels, opts).RegisterRoutes(mux)
	rest.NewHealthHandler("fraud-detection", providers, testLogger()).RegisterRoutes(mux)
	return mux
}
