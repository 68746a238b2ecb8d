package grpc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/fraud-detection/internal/application/dto"
	"github.com/bibbank/fraud-detection/internal/application/usecase"
	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
)

// Compile-time assertion that FraudDetectionHandler implements FraudDetectionServiceServer.
var _ FraudDetectionServiceServer = (*FraudDetectionHandler)(nil)

// FraudDetectionHandler implements the gRPC FraudDetectionServiceServer interface.
type FraudDetectionHandler struct {
	UnimplementedFraudDetectionServiceServer
	predict    *usecase.PredictTransaction
	scoreBatch *usecase.ScoreBatch
	logger     *slog.Logger
	labels     valueobject.DetectorLabels
}

// NewFraudDetectionHandler creates a new gRPC handler.
func NewFraudDetectionHandler(
	predict *usecase.PredictTransaction,
	scoreBatch *usecase.ScoreBatch,
	labels valueobject.DetectorLabels,
	logger *slog.Logger,
) *FraudDetectionHandler {
	return &FraudDetectionHandler{
		predict:    predict,
		scoreBatch: scoreBatch,
		labels:     labels,
		logger:     logger,
	}
}

// Proto-aligned request/response message types.

// TransactionMsg represents the proto Transaction message. Unset fields are
// reported as missing.
type TransactionMsg struct {
	Amount *float64 `json:"amount"`
	Time   *float64 `json:"time"`
	V1     *float64 `json:"v1"`
	V2     *float64 `json:"v2"`
	V3     *float64 `json:"v3"`
}

// VerdictMsg represents the proto Verdict message.
type VerdictMsg = dto.VerdictResponse

// BatchReportMsg represents the proto BatchReport message.
type BatchReportMsg = dto.BatchReportResponse

// PredictRequest represents the proto PredictRequest message.
type PredictRequest struct {
	Transaction *TransactionMsg `json:"transaction"`
}

// PredictResponse represents the proto PredictResponse message.
type PredictResponse struct {
	Verdict *VerdictMsg `json:"verdict"`
}

// ScoreBatchRequest represents the proto ScoreBatchRequest message.
type ScoreBatchRequest struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// ScoreBatchResponse represents the proto ScoreBatchResponse message.
type ScoreBatchResponse struct {
	Report *BatchReportMsg `json:"report"`
}

// Predict scores a single transaction.
func (h *FraudDetectionHandler) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if req == nil || req.Transaction == nil {
		return nil, status.Error(codes.InvalidArgument, "transaction is required")
	}

	tx := req.Transaction
	result, err := h.predict.Execute(ctx, dto.PredictRequest{
		Amount: tx.Amount,
		Time:   tx.Time,
		V1:     tx.V1,
		V2:     tx.V2,
		V3:     tx.V3,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "predict", err)
	}

	return &PredictResponse{Verdict: &result}, nil
}

// ScoreBatch scores an uploaded CSV table.
func (h *FraudDetectionHandler) ScoreBatch(ctx context.Context, req *ScoreBatchRequest) (*ScoreBatchResponse, error) {
	if req == nil || req.Filename == "" {
		return nil, status.Error(codes.InvalidArgument, "filename is required")
	}

	report, err := h.scoreBatch.Execute(ctx, dto.ScoreBatchRequest{
		Filename: req.Filename,
		Content:  bytes.NewReader(req.Content),
	})
	if err != nil {
		return nil, h.toStatus(ctx, "score batch", err, slog.String("filename", req.Filename))
	}

	h.logger.InfoContext(ctx, "batch scored",
		slog.String("batch_id", report.ID().String()),
		slog.String("filename", report.Filename()),
		slog.Int("total_rows", report.TotalRows()),
		slog.Int("fraud_detected", report.FraudDetected()),
	)

	resp := dto.FromBatchReport(report, h.labels)
	return &ScoreBatchResponse{Report: &resp}, nil
}

// toStatus maps a use case error to a gRPC status and logs it once.
func (h *FraudDetectionHandler) toStatus(ctx context.Context, op string, err error, attrs ...any) error {
	attrs = append(attrs, slog.String("error", err.Error()))

	switch {
	case errors.Is(err, model.ErrProvidersUnavailable):
		h.logger.WarnContext(ctx, op+" rejected, providers unavailable", attrs...)
		return status.Error(codes.Unavailable, err.Error())
	case model.IsInputError(err):
		h.logger.InfoContext(ctx, op+" rejected", attrs...)
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.WarnContext(ctx, op+" timed out", attrs...)
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.ErrorContext(ctx, "failed to "+op, attrs...)
		return status.Error(codes.Internal, "internal error")
	}
}
