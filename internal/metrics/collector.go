package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects and exposes metrics
type Collector struct {
	objectsTotal    *prometheus.CounterVec
	inflightWorkers prometheus.Gauge
	duration        prometheus.Histogram
}

// New creates a new metrics collector
func New() *Collector {
	c := &Collector{
		objectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repack_objects_total",
				Help: "Total number of objects processed",
			},
			[]string{"status"},
		),
		inflightWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "repack_inflight_workers",
				Help: "Number of workers currently processing",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "repack_object_duration_seconds",
				Help:    "Time taken to repack an object",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	prometheus.MustRegister(c.objectsTotal)
	prometheus.MustRegister(c.inflightWorkers)
	prometheus.MustRegister(c.duration)

	return c
}

// IncSuccess increments the succeeded object counter
func (c *Collector) IncSuccess() {
	c.objectsTotal.WithLabelValues("succeeded").Inc()
}

// IncSkipped increments the skipped object counter
func (c *Collector) IncSkipped() {
	c.objectsTotal.WithLabelValues("skipped").Inc()
}

// IncFailed increments the failed object counter
func (c *Collector) IncFailed() {
	c.objectsTotal.WithLabelValues("failed").Inc()
}

// WorkerStarted marks one worker as busy
func (c *Collector) WorkerStarted() {
	c.inflightWorkers.Inc()
}

// WorkerDone marks one worker as idle
func (c *Collector) WorkerDone() {
	c.inflightWorkers.Dec()
}

// ObserveDuration observes one task's duration
func (c *Collector) ObserveDuration(duration time.Duration) {
	c.duration.Observe(duration.Seconds())
}

// StartServer starts the metrics HTTP server
func (c *Collector) StartServer(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}
