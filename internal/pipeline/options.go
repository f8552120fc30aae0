package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Family is a group of source files sharing a vertical layout.
type Family int

const (
	SingleLevel Family = iota
	PressureLevel
)

func (f Family) String() string {
	if f == PressureLevel {
		return "pressure"
	}
	return "single"
}

// Granularity is the length of an output time bucket.
type Granularity int

const (
	Monthly Granularity = iota
	Daily
)

// ParseGranularity accepts "day", "daily", "month" or "monthly".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Daily, nil
	case "month", "monthly":
		return Monthly, nil
	}
	return 0, fmt.Errorf("unknown granularity %q", s)
}

func (g Granularity) String() string {
	if g == Daily {
		return "day"
	}
	return "month"
}

// DefaultPrefix returns the artifact name prefix used when none is
// configured.
func DefaultPrefix(g Granularity) string {
	if g == Daily {
		return "processed_era5jawa"
	}
	return "era5jawa"
}

// Options is the static description of one export run.
type Options struct {
	SingleLevelDir   string
	PressureLevelDir string
	// FileSuffix selects source files in both directories.
	FileSuffix string

	// Years StartYear..EndYear inclusive, YearsPerBatch at a time.
	StartYear     int
	EndYear       int
	YearsPerBatch int

	Granularity Granularity
	Prefix      string
	Rules       []Rule

	// ParallelFamilies builds the two corpora of a chunk concurrently.
	ParallelFamilies bool
}

// Validate checks the options for consistency.
func (o Options) Validate() error {
	var errs []error
	if o.SingleLevelDir == "" {
		errs = append(errs, errors.New("single-level directory is required"))
	}
	if o.PressureLevelDir == "" {
		errs = append(errs, errors.New("pressure-level directory is required"))
	}
	if o.StartYear > o.EndYear {
		errs = append(errs, fmt.Errorf("start year %d is after end year %d", o.StartYear, o.EndYear))
	}
	if o.YearsPerBatch < 1 {
		errs = append(errs, fmt.Errorf("years per batch must be positive, got %d", o.YearsPerBatch))
	}
	if o.Prefix == "" {
		errs = append(errs, errors.New("artifact prefix is required"))
	}
	for i, r := range o.Rules {
		if err := r.validate(); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
