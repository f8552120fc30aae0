package pipeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/pxndameong/era5-month-excel/internal/era5"
	"github.com/pxndameong/era5-month-excel/internal/table"
)

// CanonicalKeys are the key names of a merged table.
var CanonicalKeys = table.Keys{Latitude: "lat", Longitude: "lon", Time: "valid_time"}

type cellTime struct {
	lat, lon float64
	t        int64
}

func compareCellTime(a, b cellTime) int {
	if c := cmp.Compare(a.lat, b.lat); c != 0 {
		return c
	}
	if c := cmp.Compare(a.lon, b.lon); c != 0 {
		return c
	}
	return cmp.Compare(a.t, b.t)
}

// Merge outer-joins single-level and pressure-level rows on
// (latitude, longitude, time).
//
// Every key of either side appears in the result; the columns of the side
// that lacks it are missing. Keys repeated on both sides yield every pairing
// of their rows, so duplicates from overlapping files reach aggregation.
// Value columns present on both sides are suffixed _x and _y. Rows are
// ordered by latitude, longitude and time, and the key columns are renamed
// to CanonicalKeys.
func Merge(left, right *table.Table) (*table.Table, error) {
	for _, t := range []*table.Table{left, right} {
		if t.Keys.Time == "" {
			return nil, &era5.SchemaError{Reason: "merge input has no time key"}
		}
	}

	leftCols := suffixShared(left.Columns(), right, "_x")
	rightCols := suffixShared(right.Columns(), left, "_y")
	out := table.New(CanonicalKeys, append(leftCols, rightCols...)...)
	if len(out.Columns()) != len(leftCols)+len(rightCols) {
		return nil, &era5.SchemaError{Reason: "merged column names are not unique"}
	}

	li, lkeys := indexRows(left)
	ri, rkeys := indexRows(right)
	keys := append(lkeys, rkeys...)
	slices.SortFunc(keys, compareCellTime)
	keys = slices.Compact(keys)

	none := []int{-1}
	nl, nr := len(leftCols), len(rightCols)
	out.Rows = make([]table.Row, 0, len(keys))
	for _, k := range keys {
		ls, rs := li[k], ri[k]
		if len(ls) == 0 {
			ls = none
		}
		if len(rs) == 0 {
			rs = none
		}
		ts := time.Unix(0, k.t).UTC()
		for _, l := range ls {
			for _, r := range rs {
				vs := make([]float64, nl+nr)
				fill(vs[:nl], left, l)
				fill(vs[nl:], right, r)
				out.Rows = append(out.Rows, table.Row{Latitude: k.lat, Longitude: k.lon, Time: ts, Values: vs})
			}
		}
	}
	return out, nil
}

func indexRows(t *table.Table) (map[cellTime][]int, []cellTime) {
	idx := make(map[cellTime][]int)
	var keys []cellTime
	for i, r := range t.Rows {
		k := cellTime{lat: r.Latitude, lon: r.Longitude, t: r.Time.UnixNano()}
		if _, ok := idx[k]; !ok {
			keys = append(keys, k)
		}
		idx[k] = append(idx[k], i)
	}
	return idx, keys
}

func fill(dst []float64, t *table.Table, row int) {
	if row < 0 {
		for i := range dst {
			dst[i] = table.Missing()
		}
		return
	}
	copy(dst, t.Rows[row].Values)
}

func suffixShared(cols []string, other *table.Table, suffix string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if other.HasColumn(c) {
			c += suffix
		}
		out[i] = c
	}
	return out
}
