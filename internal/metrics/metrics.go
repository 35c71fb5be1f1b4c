// Package metrics exposes Prometheus counters for the ingestion
// pipeline. Served on /metrics by the API process and on the worker's
// debug port.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReceiptsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kakeibo",
		Name:      "receipts_uploaded_total",
		Help:      "Receipts accepted by the upload endpoint.",
	})

	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kakeibo",
		Name:      "extractions_total",
		Help:      "Extraction jobs by terminal status.",
	}, []string{"status"})

	ExtractionRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kakeibo",
		Name:      "extraction_repaired_total",
		Help:      "Model outputs that only parsed after truncation repair.",
	})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kakeibo",
		Name:      "extraction_duration_seconds",
		Help:      "Wall time of one extraction job, model call included.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	VisionRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kakeibo",
		Name:      "vision_request_errors_total",
		Help:      "Failed calls to the vision model API.",
	})
)
