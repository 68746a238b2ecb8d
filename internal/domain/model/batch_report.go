package model

import "github.com/google/uuid"

// BatchResult is the verdict of one table row.
type BatchResult struct {
	Verdict  Verdict
	Amount   float64
	Time     float64
	RowIndex int
}

// BatchReport aggregates the verdicts of a whole table in input order.
type BatchReport struct {
	filename      string
	results       []BatchResult
	id            uuid.UUID
	repairedCells int
	fraudDetected int
}

// NewBatchReport folds ordered row results into a report.
func NewBatchReport(filename string, repairedCells int, results []BatchResult) *BatchReport {
	fraud := 0
	for _, r := range results {
		if r.Verdict.IsFraud {
			fraud++
		}
	}
	return &BatchReport{
		id:            uuid.New(),
		filename:      filename,
		results:       results,
		repairedCells: repairedCells,
		fraudDetected: fraud,
	}
}

// --- Accessors ---

func (r *BatchReport) ID() uuid.UUID          { return r.id }
func (r *BatchReport) Filename() string       { return r.filename }
func (r *BatchReport) Results() []BatchResult { return r.results }
func (r *BatchReport) RepairedCells() int     { return r.repairedCells }
func (r *BatchReport) TotalRows() int         { return len(r.results) }
func (r *BatchReport) FraudDetected() int     { return r.fraudDetected }
func (r *BatchReport) SafeDetected() int      { return len(r.results) - r.fraudDetected }
