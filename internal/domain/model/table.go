package model

import "fmt"

// Cell is one numeric table cell. Valid is false for a missing value.
type Cell struct {
	Value float64
	Valid bool
}

// Present returns a valid cell holding v.
func Present(v float64) Cell {
	return Cell{Value: v, Valid: true}
}

// Missing returns an empty cell.
func Missing() Cell {
	return Cell{}
}

// Table is a column-oriented numeric table. Only the columns a parser was
// asked to decode carry cells; the header still lists every column so that
// schema checks see the whole input.
type Table struct {
	columns map[string][]Cell
	header  []string
	rows    int
}

// NewTable builds a table. Every decoded column must have the same length
// and must appear in the header.
func NewTable(header []string, columns map[string][]Cell) (*Table, error) {
	inHeader := make(map[string]struct{}, len(header))
	for _, h := range header {
		inHeader[h] = struct{}{}
	}

	rows := -1
	for name, cells := range columns {
		if _, ok := inHeader[name]; !ok {
			return nil, fmt.Errorf("column %q is not part of the header", name)
		}
		if rows >= 0 && len(cells) != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", name, len(cells), rows)
		}
		rows = len(cells)
	}
	if rows < 0 {
		rows = 0
	}

	return &Table{
		header:  append([]string(nil), header...),
		columns: columns,
		rows:    rows,
	}, nil
}

// Header returns a copy of the header row.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return t.rows
}

// HasColumn reports whether the header names the column.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.header {
		if h == name {
			return true
		}
	}
	return false
}

// Column returns the decoded cells of a column, or nil if it was not decoded.
func (t *Table) Column(name string) []Cell {
	return t.columns[name]
}

// MissingColumns returns the required names absent from the header, in the
// order they were requested.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
