package dto

import (
	"io"

	"github.com/google/uuid"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
)

// ScoreBatchRequest is the input DTO for scoring an uploaded table.
type ScoreBatchRequest struct {
	Content  io.Reader
	Filename string
}

// TransactionResult is one analysed row of a batch.
type TransactionResult struct {
	FlaggedBy string `json:"flagged_by"`
	Status    string `json:"status"`
	Amount    Number `json:"amount"`
	Time      Number `json:"time"`
	RiskScore Number `json:"risk_score"`
	RowIndex  int    `json:"row_index"`
	IsFraud   bool   `json:"is_fraud"`
	RedFlag   bool   `json:"red_flag"`
}

// BatchReportResponse is the output DTO of a scored batch.
type BatchReportResponse struct {
	Transactions  []TransactionResult `json:"transactions"`
	Filename      string              `json:"filename"`
	BatchID       uuid.UUID           `json:"batch_id"`
	TotalRows     int                 `json:"total_rows"`
	FraudDetected int                 `json:"fraud_detected"`
	SafeDetected  int                 `json:"safe_detected"`
	RepairedCells int                 `json:"repaired_cells"`
}

// FromBatchReport maps a domain report to the response DTO.
func FromBatchReport(r *model.BatchReport, labels valueobject.DetectorLabels) BatchReportResponse {
	results := r.Results()
	rows := make([]TransactionResult, len(results))
	for i, res := range results {
		rows[i] = TransactionResult{
			RowIndex:  res.RowIndex,
			Amount:    Number(res.Amount),
			Time:      Number(res.Time),
			IsFraud:   res.Verdict.IsFraud,
			RiskScore: Number(res.Verdict.RiskScore),
			RedFlag:   res.Verdict.RedFlag,
			FlaggedBy: res.Verdict.FlaggedBy.Render(labels),
			Status:    res.Verdict.Status().String(),
		}
	}

	return BatchReportResponse{
		BatchID:       r.ID(),
		Filename:      r.Filename(),
		TotalRows:     r.TotalRows(),
		FraudDetected: r.FraudDetected(),
		SafeDetected:  r.SafeDetected(),
		RepairedCells: r.RepairedCells(),
		Transactions:  rows,
	}
}
