package service

import (
	"github.com/bibbank/fraud-detection/internal/domain/model"
)

// Ingestion is the validated, repaired content of a table.
type Ingestion struct {
	Vectors       []model.IndexedVector
	RepairedCells int
}

// BatchIngestor validates a parsed table and turns it into feature vectors.
type BatchIngestor struct {
	required []string
}

// NewBatchIngestor creates an ingestor for the canonical feature columns.
func NewBatchIngestor() *BatchIngestor {
	return &BatchIngestor{required: model.RequiredColumns}
}

// Ingest runs the schema, emptiness and repair gates in that order and
// returns one vector per row, numbered from 1 in input order.
//
// Any missing value in a required column is replaced by 0.0. The
// substitution is table-wide: it never drops or skips a row.
func (b *BatchIngestor) Ingest(table *model.Table) (Ingestion, error) {
	if missing := table.MissingColumns(b.required); len(missing) > 0 {
		return Ingestion{}, model.NewSchemaError(missing...)
	}

	rows := table.Len()
	if rows == 0 {
		return Ingestion{}, model.ErrEmptyInput
	}

	columns := make([][]model.Cell, len(b.required))
	for i, name := range b.required {
		cells := table.Column(name)
		if len(cells) != rows {
			// The column is in the header but was not decoded.
			return Ingestion{}, model.NewSchemaError(name)
		}
		columns[i] = cells
	}

	repaired := 0
	vectors := make([]model.IndexedVector, rows)
	for r := 0; r < rows; r++ {
		var values [model.FeatureCount]float64
		for c := range columns {
			cell := columns[c][r]
			if !cell.Valid {
				repaired++
				continue
			}
			values[c] = cell.Value
		}
		vectors[r] = model.IndexedVector{
			RowIndex: r + 1,
			Vector:   model.FeatureVectorFromValues(values),
		}
	}

	return Ingestion{Vectors: vectors, RepairedCells: repaired}, nil
}
