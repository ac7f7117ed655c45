// Package metrics provides Prometheus collectors for the HTTP server and the
// analysis pipeline:
//   - http_request_total, http_request_duration_seconds, http_request_in_flight
//   - rate_limiter_buckets_total
//   - documents_analyzed_total, drug_findings_total, document_extraction_duration_seconds
//   - lexicon_reloads_total, lexicon_drugs
//
// All collectors are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values
const (
	SourcePDF  = "pdf"
	SourceText = "text"
	SourceCLI  = "cli"

	OutcomeSuccess            = "success"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeUnsupportedType    = "unsupported_type"
	OutcomeExtractionFailed   = "extraction_failed"
	OutcomeClassificationFail = "classification_failed"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen in the last cleanup window)",
		},
	)

	DocumentsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_analyzed_total",
			Help: "Documents analyzed by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	DrugFindings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drug_findings_total",
			Help: "Drug findings reported per compatibility bucket",
		},
		[]string{"bucket"},
	)

	ExtractionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "document_extraction_duration_seconds",
			Help:    "Time spent extracting text from uploaded documents",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	LexiconReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexicon_reloads_total",
			Help: "Lexicon reload attempts by outcome",
		},
		[]string{"outcome"},
	)

	LexiconDrugs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexicon_drugs",
			Help: "Number of drugs in the active lexicon",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		DocumentsAnalyzed,
		DrugFindings,
		ExtractionDuration,
		LexiconReloads,
		LexiconDrugs,
	)
}

// RecordFindings counts the findings of one report per bucket
func RecordFindings(incompatible, warnings, compatible int) {
	DrugFindings.WithLabelValues("incompatible").Add(float64(incompatible))
	DrugFindings.WithLabelValues("warnings").Add(float64(warnings))
	DrugFindings.WithLabelValues("compatible").Add(float64(compatible))
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
