package era5

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Coordinate names seen in ERA5 downloads, newest CDS format first.
var (
	timeNames      = []string{"valid_time", "time"}
	latitudeNames  = []string{"latitude", "lat"}
	longitudeNames = []string{"longitude", "lon"}
	levelNames     = []string{"pressure_level", "level", "isobaricInhPa"}
)

// DefaultDropVariables are metadata variables that never become columns.
var DefaultDropVariables = []string{"expver", "number"}

// Reader turns gridded files into year-filtered datasets.
type Reader struct {
	logger *slog.Logger
	open   Opener
	drop   map[string]bool
}

// NewReader creates a reader. A nil opener reads NetCDF files. Variables
// named in drop are ignored if present.
func NewReader(logger *slog.Logger, open Opener, drop []string) *Reader {
	if open == nil {
		open = OpenNetCDF
	}
	r := &Reader{logger: logger, open: open, drop: make(map[string]bool, len(drop))}
	for _, name := range drop {
		r.drop[name] = true
	}
	return r
}

// Read opens the file at path and returns the readings whose UTC year is in
// years. expectLevels tells whether the file belongs to a vertically
// resolved family.
func (r *Reader) Read(path string, years YearSet, expectLevels bool) (ds *Dataset, err error) {
	a, err := r.open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer a.Close()
	defer func() {
		if p := recover(); p != nil {
			ds, err = nil, &DecodeError{Path: path, Err: fmt.Errorf("panic while decoding: %v", p)}
		}
	}()

	names := a.Variables()
	timeName := firstPresent(names, timeNames)
	latName := firstPresent(names, latitudeNames)
	lonName := firstPresent(names, longitudeNames)
	levName := firstPresent(names, levelNames)
	switch {
	case timeName == "":
		return nil, &SchemaError{Path: path, Reason: "no time coordinate"}
	case latName == "":
		return nil, &SchemaError{Path: path, Reason: "no latitude coordinate"}
	case lonName == "":
		return nil, &SchemaError{Path: path, Reason: "no longitude coordinate"}
	case levName != "" && !expectLevels:
		return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("unexpected vertical axis %q in single-level file", levName)}
	}

	ds = &Dataset{Path: path}
	allTimes, err := r.readTimes(a, timeName)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if ds.Latitudes, err = coordValues(a, latName); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if ds.Longitudes, err = coordValues(a, lonName); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if levName != "" {
		if ds.Levels, err = coordValues(a, levName); err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
	}

	var selected []int
	for i, ts := range allTimes {
		if years.Contains(ts.Year()) {
			selected = append(selected, i)
			ds.Times = append(ds.Times, ts)
		}
	}
	runs := contiguousRuns(selected)

	coords := map[string]bool{timeName: true, latName: true, lonName: true, levName: true}
	for _, name := range names {
		if coords[name] || r.drop[name] {
			continue
		}
		v, err := a.Variable(name)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		levelled, ok := axisLayout(v.Dimensions(), timeName, levName, latName, lonName)
		if !ok {
			r.logger.Warn("Ignoring variable with unsupported axes", "path", path, "variable", name, "dims", v.Dimensions())
			continue
		}
		data, err := readSelected(v, runs)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("variable %q: %w", name, err)}
		}
		want := len(ds.Times) * len(ds.Latitudes) * len(ds.Longitudes)
		if levelled {
			want *= len(ds.Levels)
		}
		if len(data) != want {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("variable %q has %d values, want %d", name, len(data), want)}
		}
		ds.Variables = append(ds.Variables, Variable{Name: name, Levelled: levelled, Data: data})
	}

	r.logger.Debug("ERA5 summary", ds.Summary()...)
	return ds, nil
}

func (r *Reader) readTimes(a Archive, name string) ([]time.Time, error) {
	v, err := a.Variable(name)
	if err != nil {
		return nil, err
	}
	raw, err := v.Values()
	if err != nil {
		return nil, err
	}
	offsets, err := appendNumeric(nil, raw)
	if err != nil {
		return nil, err
	}
	return decodeTimes(offsets, attrString(v, "units"))
}

func coordValues(a Archive, name string) ([]float64, error) {
	v, err := a.Variable(name)
	if err != nil {
		return nil, err
	}
	raw, err := v.Values()
	if err != nil {
		return nil, err
	}
	return appendNumeric(nil, raw)
}

// readSelected reads the given runs of time indices and unpacks them.
func readSelected(v VarReader, runs [][2]int) ([]float64, error) {
	var data []float64
	for _, run := range runs {
		s, err := v.Slice(int64(run[0]), int64(run[1]))
		if err != nil {
			return nil, err
		}
		if data, err = appendNumeric(data, s); err != nil {
			return nil, err
		}
	}
	packingOf(v).unpack(data)
	return data, nil
}

// axisLayout reports whether dims is (time, lat, lon) or
// (time, level, lat, lon), and which of the two it is.
func axisLayout(dims []string, timeName, levName, latName, lonName string) (levelled, ok bool) {
	switch {
	case slices.Equal(dims, []string{timeName, latName, lonName}):
		return false, true
	case levName != "" && slices.Equal(dims, []string{timeName, levName, latName, lonName}):
		return true, true
	}
	return false, false
}

// contiguousRuns groups ascending indices into half-open [begin, end) runs.
func contiguousRuns(idx []int) [][2]int {
	var runs [][2]int
	for _, i := range idx {
		if n := len(runs); n > 0 && runs[n-1][1] == i {
			runs[n-1][1] = i + 1
			continue
		}
		runs = append(runs, [2]int{i, i + 1})
	}
	return runs
}

func firstPresent(names, candidates []string) string {
	for _, c := range candidates {
		if slices.Contains(names, c) {
			return c
		}
	}
	return ""
}
