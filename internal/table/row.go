package table

import (
	"math"
	"time"
)

// Row is a collection of readings taken at a given geo location at a given
// time.
type Row struct {
	// Dimensions
	Latitude  float64
	Longitude float64
	Time      time.Time

	// Values holds one reading per table column, in column order. Missing
	// readings are NaN.
	Values []float64
}

// Missing returns the value used for absent readings.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v represents an absent reading.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// missingValues returns a slice of n missing readings.
func missingValues(n int) []float64 {
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = math.NaN()
	}
	return vs
}
