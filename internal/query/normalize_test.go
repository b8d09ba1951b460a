package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ResultsField(t *testing.T) {
	raw := json.RawMessage(`{
		"results": [{"id": 1, "name": "a"}],
		"sql_query": "SELECT * FROM users",
		"execution_time": 0.012
	}`)

	res := Normalize(raw)
	require.False(t, res.IsError())
	assert.Equal(t, "SELECT * FROM users", res.GeneratedQuery)
	require.NotNil(t, res.ExecutionTime)
	assert.InDelta(t, 0.012, *res.ExecutionTime, 1e-9)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, "a", res.Rows[0]["name"])
}

func TestNormalize_DataField(t *testing.T) {
	raw := json.RawMessage(`{"data": [{"x": 1}, {"x": 2}]}`)

	res := Normalize(raw)
	require.False(t, res.IsError())
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"x"}, res.Columns)
}

func TestNormalize_ResultsWinsOverData(t *testing.T) {
	raw := json.RawMessage(`{"results": [{"a": 1}], "data": [{"b": 2}]}`)

	res := Normalize(raw)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"a"}, res.Columns)
}

func TestNormalize_NeitherFieldMeansEmpty(t *testing.T) {
	res := Normalize(json.RawMessage(`{"sql_query": "SELECT 1"}`))
	assert.False(t, res.IsError())
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Columns)
}

func TestNormalize_ErrorTakesPrecedence(t *testing.T) {
	raw := json.RawMessage(`{"error": "syntax error", "results": [{"id": 1}]}`)

	res := Normalize(raw)
	assert.True(t, res.IsError())
	assert.Equal(t, "syntax error", res.Err)
	// Rows may be populated but the error path wins at render time.
}

func TestNormalize_ColumnOrderFollowsWireOrder(t *testing.T) {
	raw := json.RawMessage(`{"results": [{"zulu": 1, "alpha": 2, "mike": {"nested": true}}]}`)

	res := Normalize(raw)
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, res.Columns)
}

func TestNormalize_ColumnsFromFirstRowOnly(t *testing.T) {
	raw := json.RawMessage(`{"results": [{"a": 1}, {"a": 2, "b": 3}]}`)

	res := Normalize(raw)
	assert.Equal(t, []string{"a"}, res.Columns)
	require.Len(t, res.Rows, 2)
}

func TestNormalize_Garbage(t *testing.T) {
	res := Normalize(json.RawMessage(`[not json`))
	assert.True(t, res.IsError())
}

func TestCellText(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected string
	}{
		{"nil", nil, "NULL"},
		{"string", "hello", "hello"},
		{"bool", true, "true"},
		{"integral float", float64(42), "42"},
		{"fractional float", 0.012, "0.012"},
		{"nested object", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"nested array", []any{float64(1), "two"}, `[1,"two"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CellText(tt.in))
		})
	}
}
