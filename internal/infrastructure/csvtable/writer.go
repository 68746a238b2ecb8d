package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
)

// ReportHeader is the column order of an exported report.
var ReportHeader = []string{"row_index", "amount", "time", "risk_score", "flagged_by", "status"}

// WriteReport writes one line per analysed row in input order.
func WriteReport(w io.Writer, report *model.BatchReport, labels valueobject.DetectorLabels) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, r := range report.Results() {
		err := cw.Write([]string{
			strconv.Itoa(r.RowIndex),
			formatFloat(r.Amount),
			formatFloat(r.Time),
			formatFloat(r.Verdict.RiskScore),
			r.Verdict.FlaggedBy.Render(labels),
			r.Verdict.Status().String(),
		})
		if err != nil {
			return fmt.Errorf("failed to write report row %d: %w", r.RowIndex, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
