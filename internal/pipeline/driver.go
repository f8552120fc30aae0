package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/pxndameong/era5-month-excel/internal/era5"
	"github.com/pxndameong/era5-month-excel/internal/observability"
	"github.com/pxndameong/era5-month-excel/internal/table"
)

// Artifact is the aggregated table of one bucket, ready to be persisted.
type Artifact struct {
	// Name is <prefix>_<YYYY>_<MM>[_<DD>]; writers add their own extension.
	Name   string
	Bucket Bucket
	Table  *table.Table
}

// ArtifactWriter persists one artifact.
type ArtifactWriter interface {
	WriteArtifact(ctx context.Context, a Artifact) error
}

// Summary counts what a run did.
type Summary struct {
	ChunksProcessed  int
	ChunksSkipped    int
	ArtifactsWritten int
	ArtifactsFailed  int
}

// Driver runs the export one year chunk at a time.
type Driver struct {
	opts    Options
	corpus  *CorpusBuilder
	writer  ArtifactWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewDriver validates opts and creates a driver.
func NewDriver(opts Options, reader DatasetReader, writer ArtifactWriter, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Driver{
		opts:    opts,
		corpus:  NewCorpusBuilder(reader, opts.FileSuffix, logger, metrics),
		writer:  writer,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}, nil
}

// Run processes every chunk in order. Schema problems skip a chunk and
// write failures skip a bucket; any other error stops the run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	chunks := Partition(d.opts.StartYear, d.opts.EndYear, d.opts.YearsPerBatch)
	d.logger.Info("Export started",
		"from", d.opts.StartYear,
		"to", d.opts.EndYear,
		"chunks", len(chunks),
		"granularity", d.opts.Granularity.String(),
	)
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := d.runChunk(ctx, c, &sum); err != nil {
			return sum, fmt.Errorf("years %s: %w", c, err)
		}
	}
	d.logger.Info("Export finished",
		"chunks", sum.ChunksProcessed,
		"skippedChunks", sum.ChunksSkipped,
		"artifacts", sum.ArtifactsWritten,
		"failedArtifacts", sum.ArtifactsFailed,
	)
	return sum, nil
}

func (d *Driver) runChunk(ctx context.Context, c Chunk, sum *Summary) error {
	start := d.clock.Now()
	years := c.Years()
	logger := d.logger.With("years", c.String())
	logger.Info("Processing years", "list", years.Sorted())

	single, pressure, err := d.buildCorpora(ctx, years)
	if err != nil {
		return d.skipOnSchema(logger, err, sum)
	}
	d.metrics.MissingValues.WithLabelValues("single").Add(float64(CheckMissing(logger, single, "single-level data")))
	d.metrics.MissingValues.WithLabelValues("pressure").Add(float64(CheckMissing(logger, pressure, "pressure-level data")))

	merged, err := Merge(single, pressure)
	if err != nil {
		return d.skipOnSchema(logger, err, sum)
	}
	single, pressure = nil, nil
	for _, r := range Derive(merged, d.opts.Rules) {
		logger.Debug("Derived column", "from", r.Source, "to", r.Output, "kind", r.Kind.String())
	}

	buckets := Aggregate(merged, d.opts.Granularity)
	merged = nil
	if len(buckets) == 0 {
		logger.Warn("No rows for years")
	}
	for _, b := range buckets {
		if err := ctx.Err(); err != nil {
			return err
		}
		label := b.Bucket.String()
		missing := CheckMissing(logger, b.Table, "processed data", "bucket", label)
		d.metrics.MissingValues.WithLabelValues("bucket").Add(float64(missing))

		a := Artifact{Name: b.Bucket.ArtifactName(d.opts.Prefix), Bucket: b.Bucket, Table: b.Table}
		if err := d.writer.WriteArtifact(ctx, a); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Could not write artifact", "artifact", a.Name, "err", err)
			d.metrics.ArtifactErrors.Inc()
			sum.ArtifactsFailed++
			continue
		}
		logger.Info("Saved", "artifact", a.Name, "rows", b.Table.Len())
		d.metrics.ArtifactsOK.Inc()
		sum.ArtifactsWritten++
	}

	sum.ChunksProcessed++
	d.metrics.Chunks.WithLabelValues("processed").Inc()
	d.metrics.ChunkDuration.Observe(d.clock.Since(start).Seconds())
	return nil
}

// buildCorpora reads both families for years, concurrently if configured.
func (d *Driver) buildCorpora(ctx context.Context, years era5.YearSet) (single, pressure *table.Table, err error) {
	if !d.opts.ParallelFamilies {
		if single, err = d.corpus.Build(ctx, d.opts.SingleLevelDir, SingleLevel, years); err != nil {
			return nil, nil, err
		}
		if pressure, err = d.corpus.Build(ctx, d.opts.PressureLevelDir, PressureLevel, years); err != nil {
			return nil, nil, err
		}
		return single, pressure, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		single, err = d.corpus.Build(gctx, d.opts.SingleLevelDir, SingleLevel, years)
		return err
	})
	g.Go(func() error {
		var err error
		pressure, err = d.corpus.Build(gctx, d.opts.PressureLevelDir, PressureLevel, years)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return single, pressure, nil
}

// skipOnSchema turns a schema error into a skipped chunk and passes any
// other error through.
func (d *Driver) skipOnSchema(logger *slog.Logger, err error, sum *Summary) error {
	var schemaErr *era5.SchemaError
	if !errors.As(err, &schemaErr) {
		return err
	}
	logger.Error("Skipping years", "err", err)
	sum.ChunksSkipped++
	d.metrics.Chunks.WithLabelValues("skipped").Inc()
	return nil
}
