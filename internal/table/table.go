// Package table holds the flat, column-oriented view of gridded readings the
// export pipeline passes between its stages.
//
// A Table has three key columns (latitude, longitude and, until aggregation,
// time) followed by an ordered list of value columns. Key columns are typed
// fields on every Row; value columns are float64 with NaN for missing.
package table

import (
	"fmt"
	"time"
)

// Keys names the key columns of a table. An empty Time means the table has
// no time column.
type Keys struct {
	Latitude  string
	Longitude string
	Time      string
}

// Table is an ordered set of rows sharing the same value columns.
type Table struct {
	Keys Keys
	Rows []Row

	columns []string
	index   map[string]int
}

// New creates an empty table with the given key names and value columns.
// Duplicate column names are ignored after their first occurrence.
func New(keys Keys, columns ...string) *Table {
	t := &Table{
		Keys:  keys,
		index: make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, ok := t.index[c]; ok {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns the value column names in order. The caller must not
// modify the returned slice.
func (t *Table) Columns() []string {
	return t.columns
}

// Header returns all column names in output order: key columns first.
func (t *Table) Header() []string {
	h := []string{t.Keys.Latitude, t.Keys.Longitude}
	if t.Keys.Time != "" {
		h = append(h, t.Keys.Time)
	}
	return append(h, t.columns...)
}

// HasColumn reports whether name is a value column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the value column name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// AddRow appends a row. values must have one entry per value column.
func (t *Table) AddRow(lat, lon float64, ts time.Time, values []float64) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	t.Rows = append(t.Rows, Row{Latitude: lat, Longitude: lon, Time: ts, Values: values})
	return nil
}

// AddColumn appends a value column filled with missing values and returns
// its index. If the column already exists its index is returned unchanged.
func (t *Table) AddColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.columns)
	t.index[name] = i
	t.columns = append(t.columns, name)
	for r := range t.Rows {
		t.Rows[r].Values = append(t.Rows[r].Values, Missing())
	}
	return i
}

// DropColumn removes a value column. It reports whether the column existed.
func (t *Table) DropColumn(name string) bool {
	i, ok := t.index[name]
	if !ok {
		return false
	}
	t.columns = append(t.columns[:i], t.columns[i+1:]...)
	for r := range t.Rows {
		vs := t.Rows[r].Values
		t.Rows[r].Values = append(vs[:i], vs[i+1:]...)
	}
	t.reindex()
	return true
}

// RenameColumn renames a value column in place.
func (t *Table) RenameColumn(from, to string) error {
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("no column %q", from)
	}
	if from == to {
		return nil
	}
	if _, ok := t.index[to]; ok {
		return fmt.Errorf("column %q already exists", to)
	}
	t.columns[i] = to
	delete(t.index, from)
	t.index[to] = i
	return nil
}

// Value returns the reading of column name in row r.
func (t *Table) Value(r int, name string) (float64, bool) {
	i, ok := t.index[name]
	if !ok || r < 0 || r >= len(t.Rows) {
		return Missing(), false
	}
	return t.Rows[r].Values[i], true
}

// Append concatenates the rows of other onto t. Columns of other that t
// lacks are added to t; columns of t that other lacks are missing in the
// appended rows.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}
	for _, c := range other.columns {
		t.AddColumn(c)
	}
	mapping := make([]int, len(other.columns))
	for j, c := range other.columns {
		mapping[j] = t.index[c]
	}
	for _, r := range other.Rows {
		vs := missingValues(len(t.columns))
		for j, v := range r.Values {
			vs[mapping[j]] = v
		}
		t.Rows = append(t.Rows, Row{Latitude: r.Latitude, Longitude: r.Longitude, Time: r.Time, Values: vs})
	}
}

func (t *Table) reindex() {
	clear(t.index)
	for i, c := range t.columns {
		t.index[c] = i
	}
}
