package dto

import (
	"github.com/google/uuid"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
)

// PredictRequest is the input DTO for a single-transaction prediction.
// Absent fields stay nil so they can be reported as missing.
type PredictRequest struct {
	Amount *float64 `json:"amount"`
	Time   *float64 `json:"time"`
	V1     *float64 `json:"v1"`
	V2     *float64 `json:"v2"`
	V3     *float64 `json:"v3"`
}

// Validate returns a *model.SchemaError naming every absent field in
// canonical order.
func (r PredictRequest) Validate() error {
	var missing []string
	for i, f := range r.fields() {
		if f == nil {
			missing = append(missing, model.RequiredColumns[i])
		}
	}
	if len(missing) > 0 {
		return model.NewSchemaError(missing...)
	}
	return nil
}

// Vector converts a validated request. Absent fields read as 0.
func (r PredictRequest) Vector() model.FeatureVector {
	var values [model.FeatureCount]float64
	for i, f := range r.fields() {
		if f != nil {
			values[i] = *f
		}
	}
	return model.FeatureVectorFromValues(values)
}

func (r PredictRequest) fields() [model.FeatureCount]*float64 {
	return [model.FeatureCount]*float64{r.Amount, r.Time, r.V1, r.V2, r.V3}
}

// VerdictResponse is the output DTO of a prediction.
type VerdictResponse struct {
	RequestID    uuid.UUID `json:"request_id"`
	FlaggedBy    string    `json:"flagged_by"`
	Status       string    `json:"status"`
	RiskLevel    string    `json:"risk_level"`
	RiskScore    Number    `json:"risk_score"`
	AnomalyScore Number    `json:"anomaly_score"`
	IsFraud      bool      `json:"is_fraud"`
	RedFlag      bool      `json:"red_flag"`
}

// FromVerdict maps a domain verdict to the response DTO.
func FromVerdict(requestID uuid.UUID, v model.Verdict, labels valueobject.DetectorLabels) VerdictResponse {
	return VerdictResponse{
		RequestID:    requestID,
		IsFraud:      v.IsFraud,
		RiskScore:    Number(v.RiskScore),
		AnomalyScore: Number(v.AnomalyScore),
		RedFlag:      v.RedFlag,
		FlaggedBy:    v.FlaggedBy.Render(labels),
		Status:       v.Status().String(),
		RiskLevel:    v.RiskLevel().String(),
	}
}
