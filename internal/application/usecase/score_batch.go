package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/fraud-detection/internal/application/dto"
	"github.com/bibbank/fraud-detection/internal/domain/event"
	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/port"
	"github.com/bibbank/fraud-detection/internal/domain/service"
)

// BatchOptions sizes the batch scoring fan-out.
type BatchOptions struct {
	Workers   int
	ChunkSize int
}

// ScoreBatch is the use case for scoring an uploaded table.
type ScoreBatch struct {
	providers port.ProviderSource
	reader    port.TableReader
	ingestor  *service.BatchIngestor
	engine    *service.DecisionEngine
	publisher port.EventPublisher
	metrics   port.MetricsRecorder
	logger    *slog.Logger
	opts      BatchOptions
}

// NewScoreBatch creates a new ScoreBatch use case. Non-positive options
// fall back to one worker and 512-row chunks.
func NewScoreBatch(
	providers port.ProviderSource,
	reader port.TableReader,
	ingestor *service.BatchIngestor,
	engine *service.DecisionEngine,
	publisher port.EventPublisher,
	metrics port.MetricsRecorder,
	opts BatchOptions,
	logger *slog.Logger,
) *ScoreBatch {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = 512
	}
	return &ScoreBatch{
		providers: providers,
		reader:    reader,
		ingestor:  ingestor,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics,
		opts:      opts,
		logger:    logger,
	}
}

// Execute parses, validates and scores every row. The report lists rows in
// input order. Any failure aborts the whole batch.
func (uc *ScoreBatch) Execute(ctx context.Context, req dto.ScoreBatchRequest) (report *model.BatchReport, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ScoreBatch.Execute")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("filename", req.Filename))

	// 1. Providers must be loaded before the upload is read.
	classifier, detector, err := uc.providers.Providers()
	if err != nil {
		return nil, err
	}

	// 2. Parse, then run the schema, emptiness and repair gates.
	table, err := uc.reader.ReadTable(req.Filename, req.Content, model.RequiredColumns)
	if err != nil {
		return nil, err
	}
	ingestion, err := uc.ingestor.Ingest(table)
	if err != nil {
		return nil, err
	}
	if ingestion.RepairedCells > 0 {
		uc.logger.InfoContext(ctx, "repaired missing cells",
			slog.String("filename", req.Filename),
			slog.Int("cells", ingestion.RepairedCells),
		)
	}

	// 3. Score in chunks; each worker fills only its own range.
	results, err := uc.score(ctx, classifier, detector, ingestion.Vectors)
	if err != nil {
		return nil, err
	}

	// 4. Fold.
	report = model.NewBatchReport(req.Filename, ingestion.RepairedCells, results)
	span.SetAttributes(
		attribute.String("batch_id", report.ID().String()),
		attribute.Int("rows", report.TotalRows()),
		attribute.Int("fraud_detected", report.FraudDetected()),
	)
	for _, r := range results {
		uc.metrics.RecordVerdict(ctx, "batch", r.Verdict.Status().String())
	}
	uc.metrics.RecordBatch(ctx, report.TotalRows(), time.Since(start))

	// 5. Notify. Delivery problems never fail the batch.
	evt, err := event.NewBatchScored(report)
	if err == nil {
		err = uc.publisher.Publish(ctx, evt)
	}
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to publish batch event",
			slog.String("batch_id", report.ID().String()),
			slog.String("error", err.Error()),
		)
	}

	return report, nil
}

func (uc *ScoreBatch) score(
	ctx context.Context,
	classifier port.Classifier,
	detector port.AnomalyDetector,
	rows []model.IndexedVector,
) ([]model.BatchResult, error) {
	vectors := make([]model.FeatureVector, len(rows))
	for i, r := range rows {
		vectors[i] = r.Vector
	}
	results := make([]model.BatchResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Workers)

	for lo := 0; lo < len(rows); lo += uc.opts.ChunkSize {
		hi := min(lo+uc.opts.ChunkSize, len(rows))
		g.Go(func() error {
			chunk := vectors[lo:hi]

			probs, err := classifier.PredictProbability(gctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to predict fraud probability for rows %d-%d: %w", lo+1, hi, err)
			}
			scores, err := detector.DecisionScore(gctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to compute anomaly score for rows %d-%d: %w", lo+1, hi, err)
			}
			if len(probs) != len(chunk) || len(scores) != len(chunk) {
				return fmt.Errorf("providers returned %d probabilities and %d scores for %d rows", len(probs), len(scores), len(chunk))
			}

			for i := range chunk {
				row := rows[lo+i]
				results[lo+i] = model.BatchResult{
					RowIndex: row.RowIndex,
					Amount:   row.Vector.Amount,
					Time:     row.Vector.Time,
					Verdict:  uc.engine.Evaluate(probs[i], scores[i]),
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
