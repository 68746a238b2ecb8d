package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/port"
	"github.com/bibbank/fraud-detection/pkg/events"
)

// --- Mock implementations ---

type mockClassifier struct {
	predictFunc func(ctx context.Context, vectors []model.FeatureVector) ([]float64, error)
	mu          sync.Mutex
	calls       int
}

func (m *mockClassifier) PredictProbability(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.predictFunc(ctx, vectors)
}

type mockDetector struct {
	scoreFunc func(ctx context.Context, vectors []model.FeatureVector) ([]float64, error)
}

func (m *mockDetector) DecisionScore(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	return m.scoreFunc(ctx, vectors)
}

type mockProviderSource struct {
	classifier port.Classifier
	detector   port.AnomalyDetector
	err        error
}

func (m *mockProviderSource) Providers() (port.Classifier, port.AnomalyDetector, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.classifier, m.detector, nil
}

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, evts ...events.DomainEvent) error
	publishedEvents []events.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

type mockMetrics struct {
	mu       sync.Mutex
	verdicts map[string]int
	batches  []int
}

func (m *mockMetrics) RecordVerdict(_ context.Context, mode, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verdicts == nil {
		m.verdicts = make(map[string]int)
	}
	m.verdicts[mode+"/"+status]++
}

func (m *mockMetrics) RecordBatch(_ context.Context, rows int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, rows)
}

// providersFrom builds a ready source from per-vector score functions.
func providersFrom(prob, anomaly func(model.FeatureVector) float64) (*mockProviderSource, *mockClassifier) {
	classifier := &mockClassifier{predictFunc: func(_ context.Context, vectors []model.FeatureVector) ([]float64, error) {
		out := make([]float64, len(vectors))
		for i, v := range vectors {
			out[i] = prob(v)
		}
		return out, nil
	}}
	detector := &mockDetector{scoreFunc: func(_ context.Context, vectors []model.FeatureVector) ([]float64, error) {
		out := make([]float64, len(vectors))
		for i, v := range vectors {
			out[i] = anomaly(v)
		}
		return out, nil
	}}
	return &mockProviderSource{classifier: classifier, detector: detector}, classifier
}

func ptr(v float64) *float64 { return &v }
