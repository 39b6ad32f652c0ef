package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/chweb/chweb/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	ok := gateway.Response{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "Alice"}, {"2", "Bob"}},
	}
	message := "Code: 60. DB::Exception: Unknown table"
	failed := gateway.Response{Columns: []string{}, Rows: [][]string{}, Error: &message}

	t.Run("tsv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, ok, OutputTSV))
		assert.Equal(t, "id\tname\n1\tAlice\n2\tBob\n", buf.String())
	})

	t.Run("tsv without columns prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, gateway.Response{Columns: []string{}, Rows: [][]string{}}, OutputTSV))
		assert.Empty(t, buf.String())
	})

	t.Run("tsv error", func(t *testing.T) {
		var buf bytes.Buffer
		var queryErr *QueryError
		require.ErrorAs(t, Render(&buf, failed, OutputTSV), &queryErr)
		assert.Equal(t, message, queryErr.Message)
		assert.Empty(t, buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, ok, OutputJSON))
		assert.Contains(t, buf.String(), `"Alice"`)
	})

	t.Run("json error writes the envelope and fails", func(t *testing.T) {
		var buf bytes.Buffer
		var queryErr *QueryError
		require.ErrorAs(t, Render(&buf, failed, OutputJSON), &queryErr)
		assert.Equal(t, message, queryErr.Message)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, message, decoded["error"])
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, ok, OutputTable))

		out := buf.String()
		assert.Contains(t, out, "Alice")
		assert.Contains(t, out, "name")
		assert.Contains(t, out, "2 rows, 2 columns")
	})

	t.Run("table error", func(t *testing.T) {
		var buf bytes.Buffer
		var queryErr *QueryError
		require.ErrorAs(t, Render(&buf, failed, OutputTable), &queryErr)
		assert.Equal(t, message, queryErr.Message)
		assert.Empty(t, buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorContains(t, Render(&buf, ok, "xml"), "unknown output format")
	})
}
