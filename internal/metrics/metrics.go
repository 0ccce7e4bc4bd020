// Package metrics exposes copymd's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Copy outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeNoSelection     = "no_selection"
	OutcomeConversionError = "conversion_error"
	OutcomeClipboardError  = "clipboard_error"
)

// Metrics holds every instrument. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	reg *prometheus.Registry

	Copies             *prometheus.CounterVec
	ConversionDuration *prometheus.HistogramVec
	MarkdownBytes      prometheus.Histogram
	Notices            *prometheus.CounterVec
	PagesOpen          prometheus.Gauge
	Fetches            *prometheus.CounterVec
}

// New registers the instruments, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Copies: f.NewCounterVec(prometheus.CounterOpts{
			Name: "copymd_copies_total",
			Help: "Copy-as-Markdown attempts by source and outcome",
		}, []string{"source", "outcome"}),
		ConversionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "copymd_conversion_duration_seconds",
			Help:    "Time from preprocessing to Markdown output",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),
		MarkdownBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "copymd_markdown_bytes",
			Help:    "Size of produced Markdown",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
		Notices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "copymd_notices_total",
			Help: "User-facing notices by kind",
		}, []string{"kind"}),
		PagesOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "copymd_pages_open",
			Help: "Browser pages currently held by the control API",
		}),
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "copymd_fetches_total",
			Help: "Browserless page fetches by whether the static HTML looked sufficient",
		}, []string{"sufficient"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// RecordCopy counts one copy attempt and, when it produced Markdown, its
// duration and size.
func (m *Metrics) RecordCopy(source, outcome string, d time.Duration, mdLen int) {
	if m == nil {
		return
	}
	m.Copies.WithLabelValues(source, outcome).Inc()
	if outcome == OutcomeOK {
		m.ConversionDuration.WithLabelValues(source).Observe(d.Seconds())
		m.MarkdownBytes.Observe(float64(mdLen))
	}
}

// RecordNotice counts a notice by kind.
func (m *Metrics) RecordNotice(kind string) {
	if m == nil {
		return
	}
	m.Notices.WithLabelValues(kind).Inc()
}

// RecordFetch counts a browserless fetch.
func (m *Metrics) RecordFetch(sufficient bool) {
	if m == nil {
		return
	}
	label := "false"
	if sufficient {
		label = "true"
	}
	m.Fetches.WithLabelValues(label).Inc()
}

// PageOpened and PageClosed track the pages gauge.
func (m *Metrics) PageOpened() {
	if m != nil {
		m.PagesOpen.Inc()
	}
}

func (m *Metrics) PageClosed() {
	if m != nil {
		m.PagesOpen.Dec()
	}
}
