// Package metrics instruments engine calls with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	OpDocxToHTML = "docx_to_html"
	OpHTMLToDocx = "html_to_docx"
	OpSign       = "sign"
	OpVerify     = "verify"
)

// Metrics holds the engine collectors.
type Metrics struct {
	// Calls by operation and result ("ok" or an error code)
	Operations *prometheus.CounterVec

	// Conversion warnings by code
	Warnings *prometheus.CounterVec

	// Verified signatures by outcome
	Signatures *prometheus.CounterVec

	// Call latency by operation
	Duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docxkit_operations_total",
			Help: "Engine calls by operation and result",
		}, []string{"operation", "result"}),

		Warnings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docxkit_conversion_warnings_total",
			Help: "Conversion warnings by code",
		}, []string{"code"}),

		Signatures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docxkit_signatures_verified_total",
			Help: "Verified signatures by outcome",
		}, []string{"outcome"}),

		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docxkit_operation_duration_seconds",
			Help:    "Duration of engine calls by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
	}
}

// ObserveOperation records one call. result is "ok" or an error code.
func (m *Metrics) ObserveOperation(op, result string, d time.Duration) {
	if m != nil {
		m.Operations.WithLabelValues(op, result).Inc()
		m.Duration.WithLabelValues(op).Observe(d.Seconds())
	}
}

// AddWarning counts a conversion warning.
func (m *Metrics) AddWarning(code string) {
	if m != nil {
		m.Warnings.WithLabelValues(code).Inc()
	}
}

// AddSignature counts a verified signature.
func (m *Metrics) AddSignature(outcome string) {
	if m != nil {
		m.Signatures.WithLabelValues(outcome).Inc()
	}
}
