package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pxndameong/era5-month-excel/internal/pipeline"
	"github.com/pxndameong/era5-month-excel/internal/table"
)

// CSV writes each artifact as <dir>/<name>.csv. Missing readings are empty
// fields.
type CSV struct {
	dir string
}

// NewCSV creates the output directory if needed.
func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &CSV{dir: dir}, nil
}

func (c *CSV) WriteArtifact(_ context.Context, a pipeline.Artifact) error {
	return writeAtomic(c.dir, a.Name+".csv", func(w io.Writer) error {
		return encodeCSV(w, a.Table)
	})
}

func encodeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return err
	}
	rec := make([]string, 0, len(t.Header()))
	for _, r := range t.Rows {
		rec = rec[:0]
		for _, cell := range rowCells(t, r) {
			switch v := cell.(type) {
			case nil:
				rec = append(rec, "")
			case float64:
				rec = append(rec, formatFloat(v))
			case time.Time:
				rec = append(rec, v.UTC().Format(time.RFC3339))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
