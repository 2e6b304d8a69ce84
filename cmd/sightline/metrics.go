package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/sightline"
)

// PrometheusCollector implements sightline.MetricsCollector.
type PrometheusCollector struct {
	opLatency *prometheus.HistogramVec
	cells     prometheus.Gauge
	segments  prometheus.Counter
	rays      *prometheus.CounterVec
}

var _ sightline.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers it with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sightline_operation_latency_seconds",
			Help:    "Latency of sightline operations",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op", "status"}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sightline_cells",
			Help: "Number of cells in the loaded snapshot",
		}),
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sightline_segments_total",
			Help: "Total segments returned by ray queries",
		}),
		rays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sightline_batch_rays_total",
			Help: "Total rays processed in batches",
		}, []string{"status"}),
	}

	reg.MustRegister(c.opLatency, c.cells, c.segments, c.rays)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *PrometheusCollector) RecordLoad(cells int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("load", status(err)).Observe(d.Seconds())
	if err == nil {
		c.cells.Set(float64(cells))
	}
}

func (c *PrometheusCollector) RecordBuild(_ int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("build", status(err)).Observe(d.Seconds())
}

func (c *PrometheusCollector) RecordQuery(segments int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("query", status(err)).Observe(d.Seconds())
	c.segments.Add(float64(segments))
}

func (c *PrometheusCollector) RecordBatch(rays, failed int, d time.Duration) {
	c.opLatency.WithLabelValues("batch", "success").Observe(d.Seconds())
	c.rays.WithLabelValues("success").Add(float64(rays - failed))
	c.rays.WithLabelValues("error").Add(float64(failed))
}
