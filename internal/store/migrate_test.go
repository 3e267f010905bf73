package store

import (
	"testing"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableByName(t *testing.T, tables []*schema.Table, name string) *schema.Table {
	t.Helper()
	for _, tb := range tables {
		if tb.Name == name {
			return tb
		}
	}
	t.Fatalf("table %q not built", name)
	return nil
}

func columnNames(tb *schema.Table) []string {
	names := make([]string, len(tb.Columns))
	for i, c := range tb.Columns {
		names[i] = c.Name
	}
	return names
}

func TestBuildTables(t *testing.T) {
	tables, err := buildTables(entities...)
	require.NoError(t, err)
	require.Len(t, tables, 3)

	runs := tableByName(t, tables, "runs")
	assert.Equal(t, append([]string(nil), runColumns...), columnNames(runs))
	require.Len(t, runs.PrimaryKey, 1)
	assert.Equal(t, "id", runs.PrimaryKey[0].Name)
	assert.Equal(t, field.TypeString, runs.PrimaryKey[0].Type)

	avg, ok := lookup(runs, "avg_confidence")
	require.True(t, ok)
	assert.True(t, avg.Nullable)

	results := tableByName(t, tables, "run_results")
	assert.Equal(t, append([]string{"id"}, resultColumns...), columnNames(results))
	assert.True(t, results.PrimaryKey[0].Increment)
	require.Len(t, results.ForeignKeys, 1)
	fk := results.ForeignKeys[0]
	assert.Same(t, runs, fk.RefTable)
	assert.Equal(t, "run_id", fk.Columns[0].Name)
	assert.Equal(t, schema.Cascade, fk.OnDelete)

	var unique bool
	for _, idx := range results.Indexes {
		if idx.Unique && len(idx.Columns) == 2 {
			unique = true
		}
	}
	assert.True(t, unique, "want unique (run_id, position) index")

	llm := tableByName(t, tables, "llm_requests")
	assert.Equal(t, append([]string{"id"}, llmColumns...), columnNames(llm))
}
