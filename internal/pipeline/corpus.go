package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pxndameong/era5-month-excel/internal/era5"
	"github.com/pxndameong/era5-month-excel/internal/observability"
	"github.com/pxndameong/era5-month-excel/internal/table"
)

// DatasetReader reads the part of one source file that falls in years.
type DatasetReader interface {
	Read(path string, years era5.YearSet, expectLevels bool) (*era5.Dataset, error)
}

// CorpusBuilder concatenates the flattened files of one source directory.
type CorpusBuilder struct {
	reader  DatasetReader
	suffix  string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCorpusBuilder creates a builder reading files whose names end in
// suffix.
func NewCorpusBuilder(reader DatasetReader, suffix string, logger *slog.Logger, metrics *observability.Metrics) *CorpusBuilder {
	return &CorpusBuilder{reader: reader, suffix: suffix, logger: logger, metrics: metrics}
}

// Build reads every matching file of dir in name order and concatenates
// their rows for years. Files that cannot be decoded are logged and
// skipped. A schema error aborts the build. An empty directory yields an
// empty table.
func (b *CorpusBuilder) Build(ctx context.Context, dir string, family Family, years era5.YearSet) (*table.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s files: %w", family, err)
	}

	corpus := table.New(era5.SourceKeys)
	label := family.String()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), b.suffix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, e.Name())

		ds, err := b.reader.Read(path, years, family == PressureLevel)
		if err != nil {
			var decodeErr *era5.DecodeError
			if errors.As(err, &decodeErr) {
				b.logger.Warn("Skipping unreadable file", "family", label, "path", path, "err", err)
				b.metrics.FilesSkipped.WithLabelValues(label).Inc()
				continue
			}
			return nil, err
		}
		flat, err := era5.Flatten(ds)
		if err != nil {
			return nil, err
		}
		b.metrics.FilesRead.WithLabelValues(label).Inc()
		b.metrics.RowsFlattened.WithLabelValues(label).Add(float64(flat.Len()))
		b.logger.Debug("Flattened file", "family", label, "path", path, "rows", flat.Len())
		corpus.Append(flat)
	}
	return corpus, nil
}
