package service

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
)

const (
	// ClassifierThreshold is the fraud probability above which the
	// classifier flags a transaction.
	ClassifierThreshold = 0.5

	// AnomalyThreshold is the anomaly score below which the detector flags
	// a transaction.
	AnomalyThreshold = 0.0

	// anomalyOnlyFloor and anomalyOnlyCap bound the risk score of a
	// transaction flagged by the anomaly detector alone.
	anomalyOnlyFloor = 50.0
	anomalyOnlyCap   = 99.9
)

// DecisionEngine combines the classifier probability and the anomaly score
// into a Verdict. It holds no state and is safe for concurrent use.
type DecisionEngine struct{}

// NewDecisionEngine creates a DecisionEngine.
func NewDecisionEngine() *DecisionEngine {
	return &DecisionEngine{}
}

// Evaluate applies the aggregation policy to one pair of model outputs.
//
// Either detector firing marks the transaction as fraud. The risk score is
// the classifier probability as a percentage, except when the anomaly
// detector is the only signal: the score is then derived from the anomaly
// severity, floored at 50 and capped at 99.9. Non-finite inputs are passed
// through unchanged.
func (e *DecisionEngine) Evaluate(fraudProbability, anomalyScore float64) model.Verdict {
	classifierFlag := fraudProbability > ClassifierThreshold
	anomalyFlag := anomalyScore < AnomalyThreshold

	riskScore := round2(fraudProbability * 100)
	if anomalyFlag && !classifierFlag {
		riskScore = math.Min(anomalyOnlyCap, round2(math.Abs(anomalyScore)*100)+anomalyOnlyFloor)
	}

	return model.Verdict{
		IsFraud:      classifierFlag || anomalyFlag,
		RiskScore:    riskScore,
		AnomalyScore: anomalyScore,
		RedFlag:      anomalyFlag,
		FlaggedBy:    valueobject.NewFlagSet(classifierFlag, anomalyFlag),
	}
}

// EvaluateOutput is Evaluate for a ModelOutput pair.
func (e *DecisionEngine) EvaluateOutput(out model.ModelOutput) model.Verdict {
	return e.Evaluate(out.FraudProbability, out.AnomalyScore)
}

// round2 rounds the exact binary value of x to two decimals, ties to even.
func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	rounded, _ := exactDecimal(x).RoundBank(2).Float64()
	return rounded
}

// exactDecimal returns the decimal that x represents without any shortening.
func exactDecimal(x float64) decimal.Decimal {
	frac, exp := math.Frexp(x)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	mant.Mul(mant, new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil))
	return decimal.NewFromBigInt(mant, int32(exp))
}
