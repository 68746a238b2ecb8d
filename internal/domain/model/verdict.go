package model

import "github.com/bibbank/fraud-detection/internal/domain/valueobject"

// ModelOutput is the raw pair produced by the two score providers for one
// feature vector.
type ModelOutput struct {
	FraudProbability float64
	AnomalyScore     float64
}

// Verdict is the explainable decision for one transaction.
type Verdict struct {
	FlaggedBy    valueobject.FlagSet
	RiskScore    float64
	AnomalyScore float64
	IsFraud      bool
	RedFlag      bool
}

// Status returns the SAFE / FRAUD / ANOMALY label of the verdict.
func (v Verdict) Status() valueobject.VerdictStatus {
	return valueobject.StatusFromFlags(v.IsFraud, v.RedFlag)
}

// RiskLevel classifies the risk score.
func (v Verdict) RiskLevel() valueobject.RiskLevel {
	return valueobject.RiskLevelFromScore(v.RiskScore)
}
