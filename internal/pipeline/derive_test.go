package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxndameong/era5-month-excel/internal/table"
)

func mergedTable(t *testing.T, cols []string, rows ...table.Row) *table.Table {
	t.Helper()
	tbl := table.New(CanonicalKeys, cols...)
	for _, r := range rows {
		require.NoError(t, tbl.AddRow(r.Latitude, r.Longitude, r.Time, r.Values))
	}
	return tbl
}

func TestDerive_DefaultRules(t *testing.T) {
	tbl := mergedTable(t, []string{"vimdf", "t2m", "tp"},
		row(10, 20, jan1, 1.5e-5, 280, 0.002),
		row(10, 20, jan1pm, -2e-5, 281, table.Missing()),
	)

	applied := DefaultRules()
	got := Derive(tbl, applied)

	require.Len(t, got, 2)
	assert.Equal(t, "vimdf", got[0].Source)
	assert.Equal(t, "tp", got[1].Source)
	assert.Equal(t, []string{"t2m", "vimfc", "tp_sum"}, tbl.Columns())
	assert.False(t, tbl.HasColumn("vimdf"))
	assert.False(t, tbl.HasColumn("tp"))

	v, _ := tbl.Value(0, "vimfc")
	assert.Equal(t, -1.5e-5, v)
	v, _ = tbl.Value(1, "vimfc")
	assert.Equal(t, 2e-5, v)
	v, _ = tbl.Value(0, "tp_sum")
	assert.InDelta(t, 2.0, v, 1e-12)
	v, _ = tbl.Value(1, "tp_sum")
	assert.True(t, table.IsMissing(v))
}

func TestDerive_MonthlyDivergenceName(t *testing.T) {
	tbl := mergedTable(t, []string{"viwvd"}, row(0, 0, jan1, 3))
	Derive(tbl, DefaultRules())
	assert.Equal(t, []string{"vimfc"}, tbl.Columns())
	v, _ := tbl.Value(0, "vimfc")
	assert.Equal(t, -3.0, v)
}

func TestDerive_AbsentSourcesAreSkipped(t *testing.T) {
	tbl := mergedTable(t, []string{"t2m"}, row(0, 0, jan1, 280))
	assert.Empty(t, Derive(tbl, DefaultRules()))
	assert.Equal(t, []string{"t2m"}, tbl.Columns())
	assert.Equal(t, []float64{280}, tbl.Rows[0].Values)
}

func TestDerive_OverwritesExistingOutput(t *testing.T) {
	tbl := mergedTable(t, []string{"vimfc", "viwvd"}, row(0, 0, jan1, 99, 4))
	Derive(tbl, []Rule{{Source: "viwvd", Kind: Negate, Output: "vimfc"}})
	assert.Equal(t, []string{"vimfc"}, tbl.Columns())
	assert.Equal(t, []float64{-4}, tbl.Rows[0].Values)
}

func TestDerive_RenameAndInPlace(t *testing.T) {
	tbl := mergedTable(t, []string{"t2m", "sp"}, row(0, 0, jan1, 280, 101325))
	Derive(tbl, []Rule{
		{Source: "t2m", Kind: Rename, Output: "temperature"},
		{Source: "sp", Kind: Scale, Factor: 0.01, Output: "sp"},
	})
	assert.Equal(t, []string{"temperature", "sp"}, tbl.Columns())
	assert.Equal(t, 280.0, tbl.Rows[0].Values[0])
	assert.InDelta(t, 1013.25, tbl.Rows[0].Values[1], 1e-9)
}

func TestParseKind(t *testing.T) {
	for s, want := range map[string]Kind{"rename": Rename, "NEGATE": Negate, " scale ": Scale} {
		got, err := ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want, mustParseKind(t, got.String()))
	}
	_, err := ParseKind("log")
	assert.Error(t, err)
}

func mustParseKind(t *testing.T, s string) Kind {
	t.Helper()
	k, err := ParseKind(s)
	require.NoError(t, err)
	return k
}
