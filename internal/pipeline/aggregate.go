package pipeline

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pxndameong/era5-month-excel/internal/table"
)

// BucketTable is the aggregated table of one bucket.
type BucketTable struct {
	Bucket Bucket
	Table  *table.Table
}

type cell struct {
	lat, lon float64
}

func compareCells(a, b cell) int {
	if c := cmp.Compare(a.lat, b.lat); c != 0 {
		return c
	}
	return cmp.Compare(a.lon, b.lon)
}

// Aggregate partitions rows into buckets and, within each bucket, averages
// every value column per (latitude, longitude). Missing readings are left out
// of the mean; a column with no readings for a cell stays missing. The
// result has no time column and is ordered by bucket, then cell.
func Aggregate(t *table.Table, g Granularity) []BucketTable {
	groups := make(map[Bucket]map[cell][]int)
	for i, r := range t.Rows {
		b := BucketOf(r.Time, g)
		cells, ok := groups[b]
		if !ok {
			cells = make(map[cell][]int)
			groups[b] = cells
		}
		c := cell{lat: r.Latitude, lon: r.Longitude}
		cells[c] = append(cells[c], i)
	}

	buckets := make([]Bucket, 0, len(groups))
	for b := range groups {
		buckets = append(buckets, b)
	}
	slices.SortFunc(buckets, compareBuckets)

	keys := table.Keys{Latitude: t.Keys.Latitude, Longitude: t.Keys.Longitude}
	ncol := len(t.Columns())
	buf := make([]float64, 0, 64)
	out := make([]BucketTable, 0, len(buckets))
	for _, b := range buckets {
		cells := groups[b]
		order := make([]cell, 0, len(cells))
		for c := range cells {
			order = append(order, c)
		}
		slices.SortFunc(order, compareCells)

		agg := table.New(keys, t.Columns()...)
		agg.Rows = make([]table.Row, 0, len(order))
		for _, c := range order {
			rows := cells[c]
			vs := make([]float64, ncol)
			for k := range vs {
				buf = buf[:0]
				for _, r := range rows {
					if v := t.Rows[r].Values[k]; !table.IsMissing(v) {
						buf = append(buf, v)
					}
				}
				if len(buf) == 0 {
					vs[k] = table.Missing()
					continue
				}
				vs[k] = stat.Mean(buf, nil)
			}
			agg.Rows = append(agg.Rows, table.Row{Latitude: c.lat, Longitude: c.lon, Values: vs})
		}
		out = append(out, BucketTable{Bucket: b, Table: agg})
	}
	return out
}
