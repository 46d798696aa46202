package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, which keeps tests free of the global registry.
type Metrics struct {
	ScrapeJobsTotal   *prometheus.CounterVec
	PagesVisited      prometheus.Counter
	ProductsExtracted prometheus.Counter
	JobDuration       prometheus.Histogram

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		ScrapeJobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scrape_jobs_total",
			Help: "The total number of scrape jobs by outcome.",
		}, []string{"outcome"}), // 'completed', 'failed'
		PagesVisited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scrape_pages_visited_total",
			Help: "The total number of listing pages visited.",
		}),
		ProductsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scrape_products_extracted_total",
			Help: "The total number of product records extracted.",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scrape_job_duration_seconds",
			Help:    "Duration of scrape jobs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncJob(outcome string) {
	if m == nil {
		return
	}
	m.ScrapeJobsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddPage() {
	if m == nil {
		return
	}
	m.PagesVisited.Inc()
}

func (m *Metrics) AddProducts(n int) {
	if m == nil {
		return
	}
	m.ProductsExtracted.Add(float64(n))
}

func (m *Metrics) ObserveJobDuration(seconds float64) {
	if m == nil {
		return
	}
	m.JobDuration.Observe(seconds)
}

func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
