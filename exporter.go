package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pxndameong/era5-month-excel/internal/config"
	"github.com/pxndameong/era5-month-excel/internal/era5"
	"github.com/pxndameong/era5-month-excel/internal/observability"
	"github.com/pxndameong/era5-month-excel/internal/pipeline"
	"github.com/pxndameong/era5-month-excel/internal/sink"
	"github.com/pxndameong/era5-month-excel/internal/vm"
)

var (
	configFile    = flag.String("config", "", "path to a YAML config file. Flags below override its values")
	singleDir     = flag.String("singleDir", "", "directory of single-level NetCDF files")
	pressureDir   = flag.String("pressureDir", "", "directory of pressure-level NetCDF files")
	outputDir     = flag.String("outputDir", "", "directory receiving the exported files")
	startYear     = flag.Int("startYear", 0, "first year to export")
	endYear       = flag.Int("endYear", 0, "last year to export")
	yearsPerBatch = flag.Int("yearsPerBatch", 0, "number of years held in memory at once. Default: 3 for monthly, 5 for daily")
	granularity   = flag.String("granularity", "", "output period: month or day")
	prefix        = flag.String("prefix", "", "output file name prefix. Default: era5jawa for monthly, processed_era5jawa for daily")
	formats       = flag.String("formats", "", "comma-separated output formats: xlsx, csv")
	parallel      = flag.Bool("parallel", false, "read single-level and pressure-level files concurrently")
	vmInsertURL   = flag.String("vmInsertUrl", "", "Victoria Metrics insert API URL, e.g. http://localhost:8428/write. Empty disables the export")
	concurrency   = flag.Int("concurrency", 0, "number of concurrent requests to Victoria Metrics")
	logLevel      = flag.String("logLevel", "", "debug, info, warn or error")
	metricsFile   = flag.String("metricsFile", "", "write Prometheus metrics of the run to this file")
	inspect       = flag.String("inspect", "", "log the summary of one NetCDF file and exit")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stdout, nil)).Error("Could not load config", "err", err)
		os.Exit(2)
	}
	logger, err := observability.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stdout, nil)).Error("Could not create logger", "err", err)
		os.Exit(2)
	}
	logger = logger.With("run_id", uuid.NewString())

	if *inspect != "" {
		os.Exit(inspectFile(logger, cfg, *inspect))
	}
	os.Exit(run(logger, cfg))
}

// loadConfig applies the flags that were set on top of the config file or
// the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile); err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "singleDir":
			cfg.Input.SingleLevelDir = *singleDir
		case "pressureDir":
			cfg.Input.PressureLevelDir = *pressureDir
		case "outputDir":
			cfg.Output.Dir = *outputDir
		case "startYear":
			cfg.StartYear = *startYear
		case "endYear":
			cfg.EndYear = *endYear
		case "yearsPerBatch":
			cfg.YearsPerBatch = *yearsPerBatch
		case "granularity":
			cfg.Granularity = *granularity
		case "prefix":
			cfg.Output.Prefix = *prefix
		case "formats":
			cfg.Output.Formats = splitList(*formats)
		case "parallel":
			cfg.ParallelFamilies = *parallel
		case "vmInsertUrl":
			cfg.VictoriaMetrics.InsertURL = *vmInsertURL
		case "concurrency":
			cfg.VictoriaMetrics.MaxConns = *concurrency
		case "logLevel":
			cfg.Log.Level = *logLevel
		case "metricsFile":
			cfg.MetricsTextfile = *metricsFile
		}
	})
	return cfg, cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func run(logger *slog.Logger, cfg *config.Config) int {
	opts, err := cfg.PipelineOptions()
	if err != nil {
		logger.Error("Invalid options", "err", err)
		return 2
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	writer, err := newWriter(logger, cfg)
	if err != nil {
		logger.Error("Could not create output", "err", err)
		return 2
	}

	reader := era5.NewReader(logger, era5.OpenNetCDF, cfg.Input.DropVariables)
	driver, err := pipeline.NewDriver(opts, reader, writer, logger, metrics, clockwork.NewRealClock())
	if err != nil {
		logger.Error("Could not create driver", "err", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, runErr := driver.Run(ctx)
	if cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, reg); err != nil {
			logger.Error("Could not write metrics", "file", cfg.MetricsTextfile, "err", err)
		}
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		logger.Warn("Export interrupted", "artifacts", sum.ArtifactsWritten)
		return 130
	case runErr != nil:
		logger.Error("Export failed", "err", runErr)
		return 1
	case sum.ArtifactsFailed > 0 || sum.ChunksSkipped > 0:
		return 3
	}
	return 0
}

// newWriter fans artifacts out to every configured output.
func newWriter(logger *slog.Logger, cfg *config.Config) (pipeline.ArtifactWriter, error) {
	var writers sink.Multi
	for _, f := range cfg.Output.Formats {
		var (
			w   pipeline.ArtifactWriter
			err error
		)
		switch f {
		case "xlsx":
			w, err = sink.NewXLSX(cfg.Output.Dir)
		case "csv":
			w, err = sink.NewCSV(cfg.Output.Dir)
		default:
			err = fmt.Errorf("unknown output format %q", f)
		}
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	if vmc := cfg.VictoriaMetrics; vmc.InsertURL != "" {
		c, err := vm.NewClient(logger, vmc.InsertURL, vmc.MaxConns, vmc.MetricPrefix, vmc.RowsPerInsert)
		if err != nil {
			return nil, fmt.Errorf("could not create new VM client: %w", err)
		}
		writers = append(writers, c)
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return writers, nil
}

// inspectFile logs what one file holds for the configured years.
func inspectFile(logger *slog.Logger, cfg *config.Config, path string) int {
	reader := era5.NewReader(logger, era5.OpenNetCDF, cfg.Input.DropVariables)
	years := era5.YearsBetween(cfg.StartYear, cfg.EndYear)
	ds, err := reader.Read(path, years, true)
	if err != nil {
		logger.Error("Could not read file", "path", path, "err", err)
		return 1
	}
	logger.Info("ERA5 summary", ds.Summary()...)
	return 0
}
