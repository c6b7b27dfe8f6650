package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringParamSchema(t *testing.T) {
	schema := StringParamSchema("query", "The research topic.")

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"query"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.NotContains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	query, ok := props["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "The research topic.", query["description"])
}

func TestValidateParameters(t *testing.T) {
	schema := StringParamSchema("text", "")

	require.NoError(t, ValidateParameters(map[string]any{"text": "notes"}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "text", vErr.Field)
	assert.Equal(t, "required field is missing", vErr.Message)

	err = ValidateParameters(map[string]any{"text": 42.0}, schema)
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Error(), "expected type string")

	err = ValidateParameters(map[string]any{"text": nil}, schema)
	assert.Error(t, err)
}

func TestValidateParameters_RequiredAsStringSlice(t *testing.T) {
	schema := map[string]any{"required": []string{"notes"}}
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"notes": "x"}, schema))
}
