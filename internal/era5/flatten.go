package era5

import (
	"fmt"
	"math"

	"github.com/pxndameong/era5-month-excel/internal/table"
)

// SourceKeys are the key column names of a flattened file.
var SourceKeys = table.Keys{Latitude: "latitude", Longitude: "longitude", Time: "valid_time"}

// LevelColumn identifies one variable at one vertical level.
type LevelColumn struct {
	Variable string
	Level    float64
}

// Name returns the column name, with the level truncated to an integer.
func (c LevelColumn) Name() string {
	return fmt.Sprintf("%s_%d", c.Variable, int64(math.Trunc(c.Level)))
}

// levelSource is where a level column takes its readings from.
type levelSource struct {
	column LevelColumn
	v      *Variable
	level  int
}

// Flatten converts a dataset into one row per (latitude, longitude, time).
//
// Datasets with a vertical axis are pivoted: every (variable, level) pair
// becomes its own column, levels outermost. Variables without a vertical
// axis are repeated for every level.
func Flatten(ds *Dataset) (*table.Table, error) {
	if !ds.HasLevels() {
		return flattenSingle(ds), nil
	}

	var sources []levelSource
	seen := make(map[string]LevelColumn)
	for l, level := range ds.Levels {
		for k := range ds.Variables {
			v := &ds.Variables[k]
			col := LevelColumn{Variable: v.Name, Level: level}
			name := col.Name()
			if prev, ok := seen[name]; ok {
				collision := &LevelCollisionError{Column: name, First: prev.Level, Second: level}
				return nil, &SchemaError{Path: ds.Path, Reason: collision.Error(), Err: collision}
			}
			seen[name] = col
			sources = append(sources, levelSource{column: col, v: v, level: l})
		}
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.column.Name()
	}
	t := table.New(SourceKeys, names...)
	t.Rows = make([]table.Row, 0, ds.TotalRecCount())
	for ti, ts := range ds.Times {
		for i, la := range ds.Latitudes {
			for j, lo := range ds.Longitudes {
				vs := make([]float64, len(sources))
				for k, s := range sources {
					vs[k] = ds.at(s.v, ti, s.level, i, j)
				}
				t.Rows = append(t.Rows, table.Row{Latitude: la, Longitude: lo, Time: ts, Values: vs})
			}
		}
	}
	return t, nil
}

func flattenSingle(ds *Dataset) *table.Table {
	names := make([]string, len(ds.Variables))
	for i, v := range ds.Variables {
		names[i] = v.Name
	}
	t := table.New(SourceKeys, names...)
	t.Rows = make([]table.Row, 0, ds.TotalRecCount())
	for ti, ts := range ds.Times {
		for i, la := range ds.Latitudes {
			for j, lo := range ds.Longitudes {
				vs := make([]float64, len(ds.Variables))
				for k := range ds.Variables {
					vs[k] = ds.at(&ds.Variables[k], ti, 0, i, j)
				}
				t.Rows = append(t.Rows, table.Row{Latitude: la, Longitude: lo, Time: ts, Values: vs})
			}
		}
	}
	return t
}
