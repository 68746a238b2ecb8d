package event

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
	"github.com/bibbank/fraud-detection/pkg/events"
)

const (
	// EventTypeVerdictIssued is emitted when a single transaction is scored.
	EventTypeVerdictIssued = "fraud.verdict.issued"

	// EventTypeBatchScored is emitted when a whole table has been scored.
	EventTypeBatchScored = "fraud.batch.scored"

	aggregateVerdict = "Verdict"
	aggregateBatch   = "BatchReport"
)

// VerdictIssued is published after a single-transaction prediction.
type VerdictIssued struct {
	events.BaseEvent
}

// VerdictIssuedPayload is the JSON body of VerdictIssued. Non-finite scores
// are encoded as null.
type VerdictIssuedPayload struct {
	IssuedAt     time.Time `json:"issued_at"`
	RiskScore    *float64  `json:"risk_score"`
	AnomalyScore *float64  `json:"anomaly_score"`
	FlaggedBy    string    `json:"flagged_by"`
	Status       string    `json:"status"`
	RequestID    uuid.UUID `json:"request_id"`
	IsFraud      bool      `json:"is_fraud"`
	RedFlag      bool      `json:"red_flag"`
}

// NewVerdictIssued builds the event for one verdict.
func NewVerdictIssued(requestID uuid.UUID, v model.Verdict, labels valueobject.DetectorLabels) (VerdictIssued, error) {
	payload, err := json.Marshal(VerdictIssuedPayload{
		RequestID:    requestID,
		IsFraud:      v.IsFraud,
		RiskScore:    finite(v.RiskScore),
		AnomalyScore: finite(v.AnomalyScore),
		RedFlag:      v.RedFlag,
		FlaggedBy:    v.FlaggedBy.Render(labels),
		Status:       v.Status().String(),
		IssuedAt:     time.Now().UTC(),
	})
	if err != nil {
		return VerdictIssued{}, fmt.Errorf("failed to marshal %s payload: %w", EventTypeVerdictIssued, err)
	}
	return VerdictIssued{
		BaseEvent: events.NewBaseEvent(EventTypeVerdictIssued, requestID, aggregateVerdict, payload),
	}, nil
}

// BatchScored is published after a table has been scored. It carries counts
// only, never row data.
type BatchScored struct {
	events.BaseEvent
}

// BatchScoredPayload is the JSON body of BatchScored.
type BatchScoredPayload struct {
	ScoredAt      time.Time `json:"scored_at"`
	Filename      string    `json:"filename"`
	BatchID       uuid.UUID `json:"batch_id"`
	TotalRows     int       `json:"total_rows"`
	FraudDetected int       `json:"fraud_detected"`
	SafeDetected  int       `json:"safe_detected"`
	RepairedCells int       `json:"repaired_cells"`
}

// NewBatchScored builds the event for a finished batch.
func NewBatchScored(report *model.BatchReport) (BatchScored, error) {
	payload, err := json.Marshal(BatchScoredPayload{
		BatchID:       report.ID(),
		Filename:      report.Filename(),
		TotalRows:     report.TotalRows(),
		FraudDetected: report.FraudDetected(),
		SafeDetected:  report.SafeDetected(),
		RepairedCells: report.RepairedCells(),
		ScoredAt:      time.Now().UTC(),
	})
	if err != nil {
		return BatchScored{}, fmt.Errorf("failed to marshal %s payload: %w", EventTypeBatchScored, err)
	}
	return BatchScored{
		BaseEvent: events.NewBaseEvent(EventTypeBatchScored, report.ID(), aggregateBatch, payload),
	}, nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
