package pipeline

import (
	"cmp"
	"fmt"
	"time"
)

// Bucket is one output time partition. Day is zero for monthly buckets.
type Bucket struct {
	Year  int
	Month time.Month
	Day   int
}

// BucketOf returns the bucket holding ts, evaluated in UTC.
func BucketOf(ts time.Time, g Granularity) Bucket {
	ts = ts.UTC()
	b := Bucket{Year: ts.Year(), Month: ts.Month()}
	if g == Daily {
		b.Day = ts.Day()
	}
	return b
}

// Start returns the first instant of the bucket.
func (b Bucket) Start() time.Time {
	day := b.Day
	if day == 0 {
		day = 1
	}
	return time.Date(b.Year, b.Month, day, 0, 0, 0, 0, time.UTC)
}

func (b Bucket) String() string {
	if b.Day == 0 {
		return fmt.Sprintf("%04d-%02d", b.Year, int(b.Month))
	}
	return fmt.Sprintf("%04d-%02d-%02d", b.Year, int(b.Month), b.Day)
}

// ArtifactName returns <prefix>_<YYYY>_<MM>[_<DD>], without extension.
func (b Bucket) ArtifactName(prefix string) string {
	if b.Day == 0 {
		return fmt.Sprintf("%s_%04d_%02d", prefix, b.Year, int(b.Month))
	}
	return fmt.Sprintf("%s_%04d_%02d_%02d", prefix, b.Year, int(b.Month), b.Day)
}

func compareBuckets(a, b Bucket) int {
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Month, b.Month); c != 0 {
		return c
	}
	return cmp.Compare(a.Day, b.Day)
}
