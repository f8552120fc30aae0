package table

// ColumnMissing is the number of missing readings in one column.
type ColumnMissing struct {
	Column  string
	Missing int
}

// MissingCounts returns, in column order, every value column that has at
// least one missing reading. Key columns are typed and never missing.
func MissingCounts(t *Table) []ColumnMissing {
	if t == nil {
		return nil
	}
	counts := make([]int, len(t.columns))
	for _, r := range t.Rows {
		for i, v := range r.Values {
			if IsMissing(v) {
				counts[i]++
			}
		}
	}
	var out []ColumnMissing
	for i, n := range counts {
		if n > 0 {
			out = append(out, ColumnMissing{Column: t.columns[i], Missing: n})
		}
	}
	return out
}
