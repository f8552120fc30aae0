package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/pxndameong/era5-month-excel/internal/pipeline"
	"github.com/pxndameong/era5-month-excel/internal/table"
)

const sheetName = "Sheet1"

// XLSX writes each artifact as <dir>/<name>.xlsx with a header row followed
// by one row per grid cell. Missing readings are left blank.
type XLSX struct {
	dir string
}

// NewXLSX creates the output directory if needed.
func NewXLSX(dir string) (*XLSX, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &XLSX{dir: dir}, nil
}

func (x *XLSX) WriteArtifact(_ context.Context, a pipeline.Artifact) error {
	return writeAtomic(x.dir, a.Name+".xlsx", func(w io.Writer) error {
		return encodeXLSX(w, a.Table)
	})
}

func encodeXLSX(w io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	header := t.Header()
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return err
	}
	for i, r := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, rowCells(t, r)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}
