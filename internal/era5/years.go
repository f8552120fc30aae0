package era5

import "slices"

// YearSet is a set of calendar years.
type YearSet map[int]struct{}

// NewYearSet returns a set holding years.
func NewYearSet(years ...int) YearSet {
	s := make(YearSet, len(years))
	for _, y := range years {
		s[y] = struct{}{}
	}
	return s
}

// YearsBetween returns the set of years first..last inclusive.
func YearsBetween(first, last int) YearSet {
	s := make(YearSet)
	for y := first; y <= last; y++ {
		s[y] = struct{}{}
	}
	return s
}

// Contains reports whether year is in the set.
func (s YearSet) Contains(year int) bool {
	_, ok := s[year]
	return ok
}

// Sorted returns the years in ascending order.
func (s YearSet) Sorted() []int {
	ys := make([]int, 0, len(s))
	for y := range s {
		ys = append(ys, y)
	}
	slices.Sort(ys)
	return ys
}
