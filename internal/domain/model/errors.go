package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProvidersUnavailable is returned when one or both score providers
	// have not been loaded yet.
	ErrProvidersUnavailable = errors.New("score providers are not available")

	// ErrEmptyInput is returned for a table with a header but no data rows.
	ErrEmptyInput = errors.New("input table has no data rows")

	// ErrParse is the sentinel wrapped by every ParseError.
	ErrParse = errors.New("input cannot be parsed as a table")
)

// SchemaError reports required fields or columns that are absent.
type SchemaError struct {
	Missing []string
}

// NewSchemaError returns a SchemaError for the given missing names.
func NewSchemaError(missing ...string) *SchemaError {
	return &SchemaError{Missing: missing}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema, missing columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError describes why an input could not be read as a table.
// Line is 1-based and zero when the error is not tied to a line.
type ParseError struct {
	Reason string
	Line   int
}

// NewParseError builds a ParseError.
func NewParseError(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %s", e.Line, e.Reason)
	}
	return "parse error: " + e.Reason
}

// Unwrap lets errors.Is match ErrParse.
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// IsInputError reports whether err is caused by the caller's input rather
// than by the service.
func IsInputError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrParse)
}
