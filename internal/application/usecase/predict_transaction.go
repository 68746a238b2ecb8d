package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fraud-detection/internal/application/dto"
	"github.com/bibbank/fraud-detection/internal/domain/event"
	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/port"
	"github.com/bibbank/fraud-detection/internal/domain/service"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
)

// PredictTransaction is the use case for scoring one transaction.
type PredictTransaction struct {
	providers port.ProviderSource
	engine    *service.DecisionEngine
	publisher port.EventPublisher
	metrics   port.MetricsRecorder
	logger    *slog.Logger
	labels    valueobject.DetectorLabels
}

// NewPredictTransaction creates a new PredictTransaction use case.
func NewPredictTransaction(
	providers port.ProviderSource,
	engine *service.DecisionEngine,
	publisher port.EventPublisher,
	metrics port.MetricsRecorder,
	labels valueobject.DetectorLabels,
	logger *slog.Logger,
) *PredictTransaction {
	return &PredictTransaction{
		providers: providers,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics,
		labels:    labels,
		logger:    logger,
	}
}

// Execute validates the request, queries both providers and returns the verdict.
func (uc *PredictTransaction) Execute(ctx context.Context, req dto.PredictRequest) (resp dto.VerdictResponse, err error) {
	ctx, span := tracer.Start(ctx, "PredictTransaction.Execute")
	defer func() { endSpan(span, err) }()

	// 1. Providers must be loaded before anything else is looked at.
	classifier, detector, err := uc.providers.Providers()
	if err != nil {
		return dto.VerdictResponse{}, err
	}

	// 2. Every feature is required.
	if err := req.Validate(); err != nil {
		return dto.VerdictResponse{}, err
	}
	vectors := []model.FeatureVector{req.Vector()}

	// 3. Score.
	probs, err := classifier.PredictProbability(ctx, vectors)
	if err != nil {
		return dto.VerdictResponse{}, fmt.Errorf("failed to predict fraud probability: %w", err)
	}
	scores, err := detector.DecisionScore(ctx, vectors)
	if err != nil {
		return dto.VerdictResponse{}, fmt.Errorf("failed to compute anomaly score: %w", err)
	}
	if len(probs) != 1 || len(scores) != 1 {
		return dto.VerdictResponse{}, fmt.Errorf("providers returned %d probabilities and %d scores for one vector", len(probs), len(scores))
	}

	// 4. Decide.
	verdict := uc.engine.Evaluate(probs[0], scores[0])
	uc.metrics.RecordVerdict(ctx, "single", verdict.Status().String())

	requestID := uuid.New()
	span.SetAttributes(
		attribute.String("request_id", requestID.String()),
		attribute.Bool("is_fraud", verdict.IsFraud),
		attribute.String("status", verdict.Status().String()),
	)

	// 5. Notify. Delivery problems never fail the prediction.
	evt, err := event.NewVerdictIssued(requestID, verdict, uc.labels)
	if err == nil {
		err = uc.publisher.Publish(ctx, evt)
	}
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to publish verdict event",
			slog.String("request_id", requestID.String()),
			slog.String("error", err.Error()),
		)
	}

	return dto.FromVerdict(requestID, verdict, uc.labels), nil
}
