// Package csvtable reads uploaded CSV files into model.Table values and
// renders batch reports back to CSV.
package csvtable

import (
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bibbank/fraud-detection/internal/domain/model"
)

// naTokens are the cell spellings read as a missing value.
var naTokens = map[string]struct{}{
	"":         {},
	"NA":       {},
	"N/A":      {},
	"n/a":      {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"<NA>":     {},
	"NaN":      {},
	"nan":      {},
	"-NaN":     {},
	"-nan":     {},
	"NULL":     {},
	"null":     {},
	"None":     {},
	"1.#IND":   {},
	"-1.#IND":  {},
	"1.#QNAN":  {},
	"-1.#QNAN": {},
}

// CheckFilename rejects uploads that are not named *.csv.
func CheckFilename(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return model.NewParseError(0, "only CSV files are supported, got %q", filepath.Base(name))
	}
	return nil
}

// Parse reads a header row followed by data rows. Only the columns named in
// decode are converted to numbers; every other column is kept in the header
// and otherwise ignored. Rows shorter than the header have their trailing
// cells treated as missing; longer rows are rejected.
func Parse(r io.Reader, decode []string) (*model.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, model.NewParseError(0, "no columns to parse from file")
	}
	if err != nil {
		return nil, csvError(err)
	}

	header := make([]string, len(record))
	position := make(map[string]int, len(record))
	for i, name := range record {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = name
		if _, dup := position[name]; !dup {
			position[name] = i
		}
	}

	type target struct {
		name  string
		index int
	}
	var targets []target
	for _, name := range decode {
		if idx, ok := position[name]; ok {
			targets = append(targets, target{name: name, index: idx})
		}
	}

	columns := make(map[string][]model.Cell, len(targets))
	for _, t := range targets {
		columns[t.name] = []model.Cell{}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) > len(header) {
			return nil, model.NewParseError(line, "expected %d fields, saw %d", len(header), len(record))
		}

		for _, t := range targets {
			cell := model.Missing()
			if t.index < len(record) {
				cell, err = parseCell(record[t.index])
				if err != nil {
					return nil, model.NewParseError(line, "column %q: %v", t.name, err)
				}
			}
			columns[t.name] = append(columns[t.name], cell)
		}
	}

	table, err := model.NewTable(header, columns)
	if err != nil {
		return nil, model.NewParseError(0, "%v", err)
	}
	return table, nil
}

func parseCell(raw string) (model.Cell, error) {
	s := strings.TrimSpace(raw)
	if _, na := naTokens[s]; na {
		return model.Missing(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return model.Present(v), nil
		}
		return model.Cell{}, errors.New("could not convert " + strconv.Quote(raw) + " to float")
	}
	return model.Present(v), nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return model.NewParseError(pe.Line, "%v", pe.Err)
	}
	return model.NewParseError(0, "%v", err)
}

// Reader implements port.TableReader for CSV uploads.
type Reader struct{}

// NewReader returns a CSV table reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadTable checks the file name and parses the content.
func (Reader) ReadTable(filename string, r io.Reader, columns []string) (*model.Table, error) {
	if err := CheckFilename(filename); err != nil {
		return nil, err
	}
	return Parse(r, columns)
}
