package era5

import "time"

// Dataset is the part of one gridded file that falls in the requested years.
type Dataset struct {
	Path string

	// Dimensions
	Times      []time.Time
	Latitudes  []float64
	Longitudes []float64
	// Levels is nil for single-level files.
	Levels []float64

	// Metrics
	Variables []Variable
}

// Variable is one data variable flattened row-major over
// (time[, level], latitude, longitude). Missing readings are NaN.
type Variable struct {
	Name     string
	Levelled bool
	Data     []float64
}

// HasLevels reports whether the dataset has a vertical axis.
func (d *Dataset) HasLevels() bool {
	return d.Levels != nil
}

// at returns the reading of v at the given indices. Variables without a
// level axis ignore l.
func (d *Dataset) at(v *Variable, t, l, i, j int) float64 {
	nla, nlo := len(d.Latitudes), len(d.Longitudes)
	if v.Levelled {
		return v.Data[((t*len(d.Levels)+l)*nla+i)*nlo+j]
	}
	return v.Data[(t*nla+i)*nlo+j]
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (d *Dataset) Summary() []any {
	names := make([]string, len(d.Variables))
	for i, v := range d.Variables {
		names[i] = v.Name
	}
	return []any{
		"path", d.Path,
		"metrics", names,
		"tsCnt", len(d.Times),
		"laCnt", len(d.Latitudes),
		"loCnt", len(d.Longitudes),
		"levCnt", len(d.Levels),
		"totalRecCnt", d.TotalRecCount(),
	}
}

// TotalRecCount returns the number of flat rows the dataset flattens to.
func (d *Dataset) TotalRecCount() int {
	return len(d.Times) * len(d.Latitudes) * len(d.Longitudes)
}
