// Package config loads export settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pxndameong/era5-month-excel/internal/era5"
	"github.com/pxndameong/era5-month-excel/internal/pipeline"
)

// Derivation is one derived column in the YAML file.
type Derivation struct {
	Source string  `yaml:"source"`
	Kind   string  `yaml:"kind"`
	Factor float64 `yaml:"factor"`
	Output string  `yaml:"output"`
}

// Config holds all export settings.
type Config struct {
	Input struct {
		SingleLevelDir   string `yaml:"single_level_dir"`
		PressureLevelDir string `yaml:"pressure_level_dir"`
		FileSuffix       string `yaml:"file_suffix"`
		// DropVariables are removed from every source file before flattening.
		DropVariables []string `yaml:"drop_variables"`
	} `yaml:"input"`

	StartYear     int    `yaml:"start_year"`
	EndYear       int    `yaml:"end_year"`
	YearsPerBatch int    `yaml:"years_per_batch"`
	Granularity   string `yaml:"granularity"`

	// Derivations replace the built-in rules when non-empty.
	Derivations      []Derivation `yaml:"derivations"`
	ParallelFamilies bool         `yaml:"parallel_families"`

	Output struct {
		Dir    string   `yaml:"dir"`
		Prefix string   `yaml:"prefix"`
		// Formats is any of xlsx, csv.
		Formats []string `yaml:"formats"`
	} `yaml:"output"`

	VictoriaMetrics struct {
		InsertURL     string `yaml:"insert_url"`
		MetricPrefix  string `yaml:"metric_prefix"`
		MaxConns      int    `yaml:"max_conns"`
		RowsPerInsert int    `yaml:"rows_per_insert"`
	} `yaml:"victoria_metrics"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// MetricsTextfile receives the Prometheus metrics of the run when set.
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// Default returns the settings of the monthly export over 1985..2024.
func Default() *Config {
	c := &Config{
		StartYear:   1985,
		EndYear:     2024,
		Granularity: "month",
	}
	c.Input.SingleLevelDir = "data/single-levels"
	c.Input.PressureLevelDir = "data/pressure-levels"
	c.Input.FileSuffix = ".nc"
	c.Input.DropVariables = append([]string(nil), era5.DefaultDropVariables...)
	c.Output.Dir = "output"
	c.Output.Formats = []string{"xlsx"}
	c.VictoriaMetrics.MetricPrefix = "era5"
	c.VictoriaMetrics.MaxConns = 4
	c.VictoriaMetrics.RowsPerInsert = 10000
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// LoadFile reads path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks settings that are not covered by pipeline.Options.
func (c *Config) Validate() error {
	var errs []error
	if _, err := pipeline.ParseGranularity(c.Granularity); err != nil {
		errs = append(errs, err)
	}
	if c.Output.Dir == "" && len(c.Output.Formats) > 0 {
		errs = append(errs, errors.New("output.dir is required"))
	}
	for _, f := range c.Output.Formats {
		if f != "xlsx" && f != "csv" {
			errs = append(errs, fmt.Errorf("unknown output format %q", f))
		}
	}
	if len(c.Output.Formats) == 0 && c.VictoriaMetrics.InsertURL == "" {
		errs = append(errs, errors.New("no output configured"))
	}
	for i, d := range c.Derivations {
		if _, err := pipeline.ParseKind(d.Kind); err != nil {
			errs = append(errs, fmt.Errorf("derivations[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// PipelineOptions converts the settings into driver options. Batch size and
// prefix default per granularity when unset.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	g, err := pipeline.ParseGranularity(c.Granularity)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		SingleLevelDir:   c.Input.SingleLevelDir,
		PressureLevelDir: c.Input.PressureLevelDir,
		FileSuffix:       c.Input.FileSuffix,
		StartYear:        c.StartYear,
		EndYear:          c.EndYear,
		YearsPerBatch:    c.YearsPerBatch,
		Granularity:      g,
		Prefix:           c.Output.Prefix,
		Rules:            pipeline.DefaultRules(),
		ParallelFamilies: c.ParallelFamilies,
	}
	if opts.YearsPerBatch == 0 {
		opts.YearsPerBatch = 3
		if g == pipeline.Daily {
			opts.YearsPerBatch = 5
		}
	}
	if opts.Prefix == "" {
		opts.Prefix = pipeline.DefaultPrefix(g)
	}
	if len(c.Derivations) > 0 {
		opts.Rules = opts.Rules[:0:0]
		for i, d := range c.Derivations {
			kind, err := pipeline.ParseKind(d.Kind)
			if err != nil {
				return pipeline.Options{}, fmt.Errorf("derivations[%d]: %w", i, err)
			}
			opts.Rules = append(opts.Rules, pipeline.Rule{Source: d.Source, Kind: kind, Factor: d.Factor, Output: d.Output})
		}
	}
	return opts, opts.Validate()
}
