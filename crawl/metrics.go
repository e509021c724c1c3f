package crawl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry      *prometheus.Registry
	PagesTotal    prometheus.Counter
	RecordsTotal  prometheus.Counter
	FetchDuration prometheus.Histogram
	ErrorsTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Total catalogue pages fetched and extracted.",
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_records_total",
			Help: "Total records sent to the pipeline.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Page fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total crawl errors by kind.",
		},
		[]string{"kind"},
	)

	registry.MustRegister(pages, records, fetchDuration, errorsTotal)

	return &Metrics{
		Registry:      registry,
		PagesTotal:    pages,
		RecordsTotal:  records,
		FetchDuration: fetchDuration,
		ErrorsTotal:   errorsTotal,
	}
}

// IncPages increments the pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// AddRecords adds n to the records counter.
func (m *Metrics) AddRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.Add(float64(n))
}

// ObserveFetch records one page fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncError increments the error counter for a kind.
func (m *Metrics) IncError(kind ErrorKind) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(string(kind)).Inc()
}
