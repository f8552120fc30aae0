package era5

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// memArchive is an in-memory Archive for tests.
type memArchive struct {
	order  []string
	vars   map[string]*memVar
	closed bool
}

type memVar struct {
	dims     []string
	attrs    map[string]any
	values   any
	sliceErr error
}

func newMemArchive() *memArchive {
	return &memArchive{vars: make(map[string]*memVar)}
}

func (a *memArchive) add(name string, dims []string, values any, attrs map[string]any) *memArchive {
	a.order = append(a.order, name)
	a.vars[name] = &memVar{dims: dims, attrs: attrs, values: values}
	return a
}

func (a *memArchive) opener() Opener {
	return func(string) (Archive, error) { return a, nil }
}

func (a *memArchive) Variables() []string { return a.order }

func (a *memArchive) Variable(name string) (VarReader, error) {
	v, ok := a.vars[name]
	if !ok {
		return nil, fmt.Errorf("no variable %q", name)
	}
	return v, nil
}

func (a *memArchive) Close() { a.closed = true }

func (v *memVar) Dimensions() []string { return v.dims }

func (v *memVar) Attribute(key string) (any, bool) {
	x, ok := v.attrs[key]
	return x, ok
}

func (v *memVar) Values() (any, error) { return v.values, nil }

func (v *memVar) Slice(begin, end int64) (any, error) {
	if v.sliceErr != nil {
		return nil, v.sliceErr
	}
	rv := reflect.ValueOf(v.values)
	if int(end) > rv.Len() || begin < 0 || begin > end {
		return nil, errors.New("slice out of range")
	}
	return rv.Slice(int(begin), int(end)).Interface(), nil
}

// unixSeconds encodes timestamps the way current CDS downloads do.
func unixSeconds(ts ...time.Time) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.Unix()
	}
	return out
}

// hoursSince1900 encodes timestamps the way legacy ERA5 files do.
func hoursSince1900(ts ...time.Time) []int32 {
	out := make([]int32, len(ts))
	for i, t := range ts {
		out[i] = int32(t.Sub(legacyEpoch) / time.Hour)
	}
	return out
}

var secondsUnits = map[string]any{"units": "seconds since 1970-01-01"}

// grid3 builds a (time, lat, lon) float32 cube whose value encodes its
// indices as t*100 + i*10 + j + base.
func grid3(nt, nla, nlo int, base float32) [][][]float32 {
	out := make([][][]float32, nt)
	for t := range out {
		out[t] = make([][]float32, nla)
		for i := range out[t] {
			out[t][i] = make([]float32, nlo)
			for j := range out[t][i] {
				out[t][i][j] = base + float32(t*100+i*10+j)
			}
		}
	}
	return out
}

// grid4 builds a (time, level, lat, lon) cube whose value encodes its
// indices as t*1000 + l*100 + i*10 + j.
func grid4(nt, nlev, nla, nlo int) [][][][]float32 {
	out := make([][][][]float32, nt)
	for t := range out {
		out[t] = make([][][]float32, nlev)
		for l := range out[t] {
			out[t][l] = make([][]float32, nla)
			for i := range out[t][l] {
				out[t][l][i] = make([]float32, nlo)
				for j := range out[t][l][i] {
					out[t][l][i][j] = float32(t*1000 + l*100 + i*10 + j)
				}
			}
		}
	}
	return out
}
