package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = Keys{Latitude: "latitude", Longitude: "longitude", Time: "valid_time"}

func TestNew_DeduplicatesColumns(t *testing.T) {
	tbl := New(testKeys, "t2m", "tp", "t2m")
	assert.Equal(t, []string{"t2m", "tp"}, tbl.Columns())
	assert.Equal(t, []string{"latitude", "longitude", "valid_time", "t2m", "tp"}, tbl.Header())
}

func TestHeader_WithoutTime(t *testing.T) {
	tbl := New(Keys{Latitude: "lat", Longitude: "lon"}, "tp_sum")
	assert.Equal(t, []string{"lat", "lon", "tp_sum"}, tbl.Header())
}

func TestAddRow_RejectsWrongWidth(t *testing.T) {
	tbl := New(testKeys, "t2m")
	err := tbl.AddRow(1, 2, time.Time{}, []float64{1, 2})
	require.Error(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestAddColumn_FillsMissing(t *testing.T) {
	tbl := New(testKeys, "t2m")
	require.NoError(t, tbl.AddRow(1, 2, time.Time{}, []float64{280}))

	i := tbl.AddColumn("tp")
	assert.Equal(t, 1, i)
	v, ok := tbl.Value(0, "tp")
	require.True(t, ok)
	assert.True(t, IsMissing(v))

	assert.Equal(t, 0, tbl.AddColumn("t2m"))
}

func TestDropColumn(t *testing.T) {
	tbl := New(testKeys, "a", "b", "c")
	require.NoError(t, tbl.AddRow(0, 0, time.Time{}, []float64{1, 2, 3}))

	assert.True(t, tbl.DropColumn("b"))
	assert.False(t, tbl.DropColumn("b"))
	assert.Equal(t, []string{"a", "c"}, tbl.Columns())
	assert.Equal(t, []float64{1, 3}, tbl.Rows[0].Values)

	i, ok := tbl.ColumnIndex("c")
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestRenameColumn(t *testing.T) {
	tbl := New(testKeys, "a", "b")
	require.NoError(t, tbl.RenameColumn("a", "z"))
	assert.Equal(t, []string{"z", "b"}, tbl.Columns())
	assert.False(t, tbl.HasColumn("a"))

	assert.Error(t, tbl.RenameColumn("missing", "x"))
	assert.Error(t, tbl.RenameColumn("z", "b"))
}

func TestAppend_UnionsColumns(t *testing.T) {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	a := New(testKeys, "t2m")
	require.NoError(t, a.AddRow(10, 20, ts, []float64{280}))
	b := New(testKeys, "tp", "t2m")
	require.NoError(t, b.AddRow(10, 20, ts, []float64{0.002, 281}))

	a.Append(b)

	assert.Equal(t, []string{"t2m", "tp"}, a.Columns())
	require.Equal(t, 2, a.Len())
	assert.Equal(t, 280.0, a.Rows[0].Values[0])
	assert.True(t, IsMissing(a.Rows[0].Values[1]))
	assert.Equal(t, []float64{281, 0.002}, a.Rows[1].Values)
}

func TestMissingCounts(t *testing.T) {
	tbl := New(testKeys, "a", "b", "c")
	require.NoError(t, tbl.AddRow(0, 0, time.Time{}, []float64{1, Missing(), Missing()}))
	require.NoError(t, tbl.AddRow(0, 1, time.Time{}, []float64{2, 3, Missing()}))

	got := MissingCounts(tbl)
	assert.Equal(t, []ColumnMissing{{Column: "b", Missing: 1}, {Column: "c", Missing: 2}}, got)

	// counting never touches the data
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 1.0, tbl.Rows[0].Values[0])
}

func TestMissingCounts_NoneMissing(t *testing.T) {
	tbl := New(testKeys, "a")
	require.NoError(t, tbl.AddRow(0, 0, time.Time{}, []float64{1}))
	assert.Empty(t, MissingCounts(tbl))
	assert.Empty(t, MissingCounts(nil))
}
