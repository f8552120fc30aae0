// Package sink persists aggregated bucket tables as files.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pxndameong/era5-month-excel/internal/pipeline"
	"github.com/pxndameong/era5-month-excel/internal/table"
)

// WriteError reports an artifact that could not be persisted.
type WriteError struct {
	Dest string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Dest, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// writeAtomic writes a file under dir through a temporary file that is
// renamed into place once encode succeeds.
func writeAtomic(dir, name string, encode func(io.Writer) error) error {
	dest := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return &WriteError{Dest: dest, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return &WriteError{Dest: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Dest: dest, Err: err}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return &WriteError{Dest: dest, Err: err}
	}
	return nil
}

// rowCells returns the key and value cells of one aggregated row. Missing
// readings are nil.
func rowCells(t *table.Table, r table.Row) []any {
	cells := make([]any, 0, 3+len(r.Values))
	cells = append(cells, r.Latitude, r.Longitude)
	if t.Keys.Time != "" {
		cells = append(cells, r.Time)
	}
	for _, v := range r.Values {
		if table.IsMissing(v) {
			cells = append(cells, nil)
			continue
		}
		cells = append(cells, v)
	}
	return cells
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Multi writes every artifact to all its writers. A failing writer does not
// stop the others; their errors are joined.
type Multi []pipeline.ArtifactWriter

func (m Multi) WriteArtifact(ctx context.Context, a pipeline.Artifact) error {
	var errs []error
	for _, w := range m {
		if err := w.WriteArtifact(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
