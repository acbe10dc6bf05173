package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// crater ETL pipeline and the annotation API.
type Metrics struct {
	RecordsConsumed  prometheus.Counter
	FeaturesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Normalization quality metrics.
	UnplaceableFeatures prometheus.Counter
	ScoresEstimated     prometheus.Counter

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// PSR enrichment metrics.
	PSRPolygonsLoaded prometheus.Gauge

	// Annotation store metrics.
	AnnotationOps *prometheus.CounterVec // labels: op, outcome
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crater_etl",
			Name:      "records_consumed_total",
			Help:      "Total raw catalog records read from the source topic.",
		}),
		FeaturesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crater_etl",
			Name:      "features_produced_total",
			Help:      "Total normalized features written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crater_etl",
			Name:      "transform_errors_total",
			Help:      "Total records skipped because decoding failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crater_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		UnplaceableFeatures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crater_etl",
			Name:      "unplaceable_features_total",
			Help:      "Features whose coordinates could not be resolved.",
		}),
		ScoresEstimated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crater_etl",
			Name:      "scores_estimated_total",
			Help:      "Water scores filled in by the batch estimator.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crater_etl",
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crater_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PSRPolygonsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crater_etl",
			Name:      "psr_polygons_loaded",
			Help:      "Number of PSR polygons available for overlap enrichment.",
		}),
		AnnotationOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crater_etl",
			Name:      "annotation_ops_total",
			Help:      "Annotation store operations by op and outcome.",
		}, []string{"op", "outcome"}),
	}

	prometheus.MustRegister(
		m.RecordsConsumed,
		m.FeaturesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.UnplaceableFeatures,
		m.ScoresEstimated,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.PSRPolygonsLoaded,
		m.AnnotationOps,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsConsumed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crater_etl", Name: "records_consumed_total"}),
		FeaturesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crater_etl", Name: "features_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crater_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crater_etl", Name: "pipeline_running"}),
		UnplaceableFeatures:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crater_etl", Name: "unplaceable_features_total"}),
		ScoresEstimated:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crater_etl", Name: "scores_estimated_total"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crater_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crater_etl", Name: "batch_processing_duration_seconds"}),
		PSRPolygonsLoaded:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crater_etl", Name: "psr_polygons_loaded"}),
		AnnotationOps:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crater_etl", Name: "annotation_ops_total"}, []string{"op", "outcome"}),
	}
}
