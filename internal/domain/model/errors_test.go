package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/fraud-detection/internal/domain/model"
)

func TestSchemaError(t *testing.T) {
	err := model.NewSchemaError("v2", "v3")
	assert.Equal(t, "invalid schema, missing columns: v2, v3", err.Error())

	wrapped := fmt.Errorf("ingest: %w", err)
	var schemaErr *model.SchemaError
	assert.True(t, errors.As(wrapped, &schemaErr))
	assert.Equal(t, []string{"v2", "v3"}, schemaErr.Missing)
}

func TestParseError(t *testing.T) {
	err := model.NewParseError(3, "wrong number of fields")
	assert.Equal(t, "parse error on line 3: wrong number of fields", err.Error())
	assert.ErrorIs(t, err, model.ErrParse)

	noLine := model.NewParseError(0, "empty file")
	assert.Equal(t, "parse error: empty file", noLine.Error())
}

func TestIsInputError(t *testing.T) {
	assert.True(t, model.IsInputError(model.NewSchemaError("amount")))
	assert.True(t, model.IsInputError(fmt.Errorf("batch: %w", model.ErrEmptyInput)))
	assert.True(t, model.IsInputError(model.NewParseError(1, "bad")))
	assert.False(t, model.IsInputError(model.ErrProvidersUnavailable))
	assert.False(t, model.IsInputError(errors.New("boom")))
}
