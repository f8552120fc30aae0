package pipeline

import (
	"log/slog"

	"github.com/pxndameong/era5-month-excel/internal/table"
)

// CheckMissing logs the per-column count of missing readings in t, or that
// there are none, and returns the total. It never modifies t.
func CheckMissing(logger *slog.Logger, t *table.Table, label string, attrs ...any) int {
	counts := table.MissingCounts(t)
	if len(counts) == 0 {
		logger.Info("No missing values", append([]any{"in", label}, attrs...)...)
		return 0
	}

	total := 0
	detail := make([]any, len(counts))
	for i, c := range counts {
		total += c.Missing
		detail[i] = slog.Int(c.Column, c.Missing)
	}
	args := append([]any{"in", label, "total", total}, attrs...)
	args = append(args, slog.Group("missing", detail...))
	logger.Warn("Missing values detected", args...)
	return total
}
