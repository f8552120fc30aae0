package era5

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	ts1 = time.Date(2019, 12, 31, 23, 0, 0, 0, time.UTC)
	ts2 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ts3 = time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	ts4 = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
)

func singleLevelArchive() *memArchive {
	dims := []string{"valid_time", "latitude", "longitude"}
	return newMemArchive().
		add("number", nil, int64(0), nil).
		add("valid_time", []string{"valid_time"}, unixSeconds(ts1, ts2, ts3, ts4), secondsUnits).
		add("latitude", []string{"latitude"}, []float64{10, 9.75}, nil).
		add("longitude", []string{"longitude"}, []float64{20, 20.25}, nil).
		add("expver", []string{"valid_time"}, []string{"0001", "0001", "0001", "0005"}, nil).
		add("t2m", dims, grid3(4, 2, 2, 0), nil).
		add("tp", dims, grid3(4, 2, 2, 0.5), nil)
}

func TestRead_FiltersYearsAndDropsMetadata(t *testing.T) {
	a := singleLevelArchive()
	r := NewReader(testLogger(), a.opener(), DefaultDropVariables)

	ds, err := r.Read("single.nc", NewYearSet(2020), false)
	require.NoError(t, err)
	assert.True(t, a.closed)

	assert.Equal(t, []time.Time{ts2, ts3}, ds.Times)
	assert.Equal(t, []float64{10, 9.75}, ds.Latitudes)
	assert.Equal(t, []float64{20, 20.25}, ds.Longitudes)
	assert.False(t, ds.HasLevels())

	require.Len(t, ds.Variables, 2)
	assert.Equal(t, "t2m", ds.Variables[0].Name)
	assert.Equal(t, "tp", ds.Variables[1].Name)
	// time indices 1 and 2 of the source cube
	assert.Equal(t, []float64{100, 101, 110, 111, 200, 201, 210, 211}, ds.Variables[0].Data)
	assert.Equal(t, 4, ds.TotalRecCount())
}

func TestRead_NoMatchingYears(t *testing.T) {
	r := NewReader(testLogger(), singleLevelArchive().opener(), DefaultDropVariables)

	ds, err := r.Read("single.nc", NewYearSet(1997), false)
	require.NoError(t, err)
	assert.Empty(t, ds.Times)
	assert.Equal(t, 0, ds.TotalRecCount())
	for _, v := range ds.Variables {
		assert.Empty(t, v.Data)
	}
}

func TestRead_LegacyPackedValues(t *testing.T) {
	dims := []string{"time", "latitude", "longitude"}
	a := newMemArchive().
		add("time", []string{"time"}, hoursSince1900(ts2, ts4), map[string]any{"units": "hours since 1900-01-01 00:00:00.0"}).
		add("latitude", []string{"latitude"}, []float32{10}, nil).
		add("longitude", []string{"longitude"}, []float32{20, 21}, nil).
		add("tp", dims, [][][]int16{{{10, -32767}}, {{20, 30}}}, map[string]any{
			"scale_factor": 0.5,
			"add_offset":   1.0,
			"_FillValue":   []int16{-32767},
		})
	r := NewReader(testLogger(), a.opener(), nil)

	ds, err := r.Read("legacy.nc", YearsBetween(2020, 2021), false)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{ts2, ts4}, ds.Times)
	require.Len(t, ds.Variables, 1)
	data := ds.Variables[0].Data
	assert.Equal(t, 6.0, data[0])
	assert.True(t, math.IsNaN(data[1]))
	assert.Equal(t, []float64{11, 16}, data[2:])
}

func TestRead_PressureLevels(t *testing.T) {
	a := newMemArchive().
		add("valid_time", []string{"valid_time"}, unixSeconds(ts2, ts3), secondsUnits).
		add("pressure_level", []string{"pressure_level"}, []float64{850, 500}, nil).
		add("latitude", []string{"latitude"}, []float64{10}, nil).
		add("longitude", []string{"longitude"}, []float64{20}, nil).
		add("q", []string{"valid_time", "pressure_level", "latitude", "longitude"}, grid4(2, 2, 1, 1), nil)
	r := NewReader(testLogger(), a.opener(), DefaultDropVariables)

	ds, err := r.Read("pressure.nc", NewYearSet(2020), true)
	require.NoError(t, err)
	assert.Equal(t, []float64{850, 500}, ds.Levels)
	require.Len(t, ds.Variables, 1)
	assert.True(t, ds.Variables[0].Levelled)
	assert.Equal(t, []float64{0, 100, 1000, 1100}, ds.Variables[0].Data)
}

func TestRead_UnexpectedLevelsIsSchemaError(t *testing.T) {
	a := newMemArchive().
		add("valid_time", []string{"valid_time"}, unixSeconds(ts2), secondsUnits).
		add("pressure_level", []string{"pressure_level"}, []float64{850}, nil).
		add("latitude", []string{"latitude"}, []float64{10}, nil).
		add("longitude", []string{"longitude"}, []float64{20}, nil)
	r := NewReader(testLogger(), a.opener(), nil)

	_, err := r.Read("pressure.nc", NewYearSet(2020), false)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "pressure.nc", schemaErr.Path)
}

func TestRead_MissingCoordinateIsSchemaError(t *testing.T) {
	a := newMemArchive().
		add("valid_time", []string{"valid_time"}, unixSeconds(ts2), secondsUnits).
		add("longitude", []string{"longitude"}, []float64{20}, nil)
	r := NewReader(testLogger(), a.opener(), nil)

	_, err := r.Read("broken.nc", NewYearSet(2020), false)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Error(), "latitude")
	assert.True(t, a.closed)
}

func TestRead_OpenFailureIsDecodeError(t *testing.T) {
	boom := errors.New("not a netcdf file")
	r := NewReader(testLogger(), func(string) (Archive, error) { return nil, boom }, nil)

	_, err := r.Read("corrupt.nc", NewYearSet(2020), false)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "corrupt.nc", decodeErr.Path)
	assert.ErrorIs(t, err, boom)
}

func TestRead_SliceFailureIsDecodeError(t *testing.T) {
	a := singleLevelArchive()
	a.vars["tp"].sliceErr = errors.New("truncated chunk")
	r := NewReader(testLogger(), a.opener(), DefaultDropVariables)

	_, err := r.Read("single.nc", NewYearSet(2020), false)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, err.Error(), "tp")
	assert.True(t, a.closed)
}

func TestRead_ShapeMismatchIsDecodeError(t *testing.T) {
	a := singleLevelArchive()
	a.vars["tp"].values = grid3(4, 1, 2, 0)
	r := NewReader(testLogger(), a.opener(), DefaultDropVariables)

	_, err := r.Read("single.nc", NewYearSet(2020), false)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestRead_IgnoresUnsupportedAxes(t *testing.T) {
	a := singleLevelArchive().
		add("lsm", []string{"latitude", "longitude"}, [][]float32{{1, 0}, {1, 1}}, nil)
	r := NewReader(testLogger(), a.opener(), DefaultDropVariables)

	ds, err := r.Read("single.nc", NewYearSet(2020), false)
	require.NoError(t, err)
	for _, v := range ds.Variables {
		assert.NotEqual(t, "lsm", v.Name)
	}
}

func TestContiguousRuns(t *testing.T) {
	assert.Nil(t, contiguousRuns(nil))
	assert.Equal(t, [][2]int{{1, 3}, {5, 6}, {7, 9}}, contiguousRuns([]int{1, 2, 5, 7, 8}))
}
