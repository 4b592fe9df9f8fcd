package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction metrics
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Time spent waiting for the model to return a knowledge graph",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
		[]string{"provider", "status"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Total number of extraction runs by outcome",
		},
		[]string{"status"},
	)

	DocumentProcessingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_processing_errors_total",
			Help: "Total number of document processing errors",
		},
		[]string{"processor", "error_type"},
	)

	DocumentPartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_parts_total",
			Help: "Number of document parts prepared for extraction",
		},
		[]string{"kind"},
	)

	// Compiler metrics
	CompiledStatements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cypher_statements_total",
			Help: "Number of Cypher statements and warnings emitted",
		},
		[]string{"kind"},
	)

	// Graph metrics
	GraphNodeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_nodes_total",
			Help: "Number of nodes in the most recent graph",
		},
		[]string{"label"},
	)

	GraphEdgeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_edges_total",
			Help: "Number of relationships in the most recent graph",
		},
		[]string{"type"},
	)
)

// RecordGraph replaces the per-label and per-type gauges with the counts of
// the most recent graph.
func RecordGraph(labelCounts, typeCounts map[string]int) {
	GraphNodeCount.Reset()
	for label, count := range labelCounts {
		GraphNodeCount.WithLabelValues(label).Set(float64(count))
	}

	GraphEdgeCount.Reset()
	for relType, count := range typeCounts {
		GraphEdgeCount.WithLabelValues(relType).Set(float64(count))
	}
}
