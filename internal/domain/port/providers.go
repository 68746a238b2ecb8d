package port

import (
	"context"
	"io"
	"time"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/pkg/events"
)

// Classifier is the supervised model. It returns one fraud probability in
// [0,1] per vector, in input order.
type Classifier interface {
	PredictProbability(ctx context.Context, vectors []model.FeatureVector) ([]float64, error)
}

// AnomalyDetector is the unsupervised model. It returns one signed score per
// vector, in input order; negative means anomalous.
type AnomalyDetector interface {
	DecisionScore(ctx context.Context, vectors []model.FeatureVector) ([]float64, error)
}

// ProviderSource hands out the loaded score providers. It returns
// model.ErrProvidersUnavailable until both providers are ready.
type ProviderSource interface {
	Providers() (Classifier, AnomalyDetector, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// MetricsRecorder receives scoring measurements.
type MetricsRecorder interface {
	RecordVerdict(ctx context.Context, mode, status string)
	RecordBatch(ctx context.Context, rows int, elapsed time.Duration)
}

// TableReader decodes an uploaded file into a table. Only the named columns
// are converted to numbers. Unreadable input yields a *model.ParseError.
type TableReader interface {
	ReadTable(filename string, r io.Reader, columns []string) (*model.Table, error)
}
