package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of analysis runs by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_run_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ExtractedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extracted_records_total",
			Help: "Total number of records extracted by kind",
		},
		[]string{"kind"},
	)

	AnalysisRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analysis_runs_active",
			Help: "Number of analysis runs in flight",
		},
	)

	AnalysisRunsSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_runs_superseded_total",
			Help: "Total number of in-flight runs canceled by a newer run on the same surface",
		},
	)
)

// RecordCounts adds one extraction's collection sizes to ExtractedRecords.
func RecordCounts(counts map[string]int) {
	for kind, n := range counts {
		ExtractedRecords.WithLabelValues(kind).Add(float64(n))
	}
}
