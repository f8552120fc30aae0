package era5

import (
	"fmt"
	"math"
	"reflect"
)

// appendNumeric appends the leaves of an arbitrarily nested numeric slice to
// dst in row-major order.
func appendNumeric(dst []float64, v any) ([]float64, error) {
	switch s := v.(type) {
	case []float32:
		for _, x := range s {
			dst = append(dst, float64(x))
		}
		return dst, nil
	case []float64:
		return append(dst, s...), nil
	case []int16:
		for _, x := range s {
			dst = append(dst, float64(x))
		}
		return dst, nil
	case []int32:
		for _, x := range s {
			dst = append(dst, float64(x))
		}
		return dst, nil
	case []int64:
		for _, x := range s {
			dst = append(dst, float64(x))
		}
		return dst, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		var err error
		for i := 0; i < rv.Len(); i++ {
			dst, err = appendNumeric(dst, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(dst, float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(dst, float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return append(dst, rv.Float()), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// attrFloat returns a numeric attribute. Single element arrays are accepted
// as scalars.
func attrFloat(v VarReader, key string) (float64, bool) {
	raw, ok := v.Attribute(key)
	if !ok || raw == nil {
		return 0, false
	}
	vs, err := appendNumeric(nil, raw)
	if err != nil || len(vs) == 0 {
		return 0, false
	}
	return vs[0], true
}

func attrString(v VarReader, key string) string {
	raw, ok := v.Attribute(key)
	if !ok {
		return ""
	}
	switch s := raw.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

// packing describes how stored values map to physical ones.
type packing struct {
	scale  float64
	offset float64
	fills  []float64
}

func packingOf(v VarReader) packing {
	p := packing{scale: 1}
	if s, ok := attrFloat(v, "scale_factor"); ok {
		p.scale = s
	}
	if o, ok := attrFloat(v, "add_offset"); ok {
		p.offset = o
	}
	for _, key := range []string{"_FillValue", "missing_value"} {
		if f, ok := attrFloat(v, key); ok {
			p.fills = append(p.fills, f)
		}
	}
	return p
}

// unpack converts stored values in place; fill values become NaN.
func (p packing) unpack(vs []float64) {
	for i, x := range vs {
		if p.isFill(x) {
			vs[i] = math.NaN()
			continue
		}
		vs[i] = x*p.scale + p.offset
	}
}

func (p packing) isFill(x float64) bool {
	if math.IsNaN(x) {
		return true
	}
	for _, f := range p.fills {
		if x == f {
			return true
		}
	}
	return false
}
