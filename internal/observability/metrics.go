package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for an export run.
type Metrics struct {
	FilesRead     *prometheus.CounterVec // labels: family
	FilesSkipped  *prometheus.CounterVec // labels: family
	RowsFlattened *prometheus.CounterVec // labels: family
	MissingValues *prometheus.CounterVec // labels: stage={single,pressure,bucket}

	Chunks         *prometheus.CounterVec // labels: outcome={processed,skipped}
	ChunkDuration  prometheus.Histogram
	ArtifactsOK    prometheus.Counter
	ArtifactErrors prometheus.Counter
}

// NewMetrics creates all export metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era5_export",
			Name:      "files_read_total",
			Help:      "Source files decoded successfully.",
		}, []string{"family"}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era5_export",
			Name:      "files_skipped_total",
			Help:      "Source files skipped because they could not be decoded.",
		}, []string{"family"}),
		RowsFlattened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era5_export",
			Name:      "rows_flattened_total",
			Help:      "Flat rows produced from source files.",
		}, []string{"family"}),
		MissingValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era5_export",
			Name:      "missing_values_total",
			Help:      "Missing readings reported by diagnostics.",
		}, []string{"stage"}),
		Chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era5_export",
			Name:      "chunks_total",
			Help:      "Year chunks by outcome.",
		}, []string{"outcome"}),
		ChunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "era5_export",
			Name:      "chunk_duration_seconds",
			Help:      "Duration of reading, merging, aggregating and writing one year chunk.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		ArtifactsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5_export",
			Name:      "artifacts_written_total",
			Help:      "Bucket artifacts written.",
		}),
		ArtifactErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5_export",
			Name:      "artifact_errors_total",
			Help:      "Bucket artifacts that could not be written.",
		}),
	}

	reg.MustRegister(
		m.FilesRead,
		m.FilesSkipped,
		m.RowsFlattened,
		m.MissingValues,
		m.Chunks,
		m.ChunkDuration,
		m.ArtifactsOK,
		m.ArtifactErrors,
	)

	return m
}
