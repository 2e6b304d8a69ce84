package sightline

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/sightline/engine"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after each snapshot load.
	RecordLoad(cells int, duration time.Duration, err error)

	// RecordBuild is called after each index build.
	RecordBuild(cells int, duration time.Duration, err error)

	// RecordQuery is called after each ray query, including every ray of a
	// batch. segments is the number of cells crossed.
	RecordQuery(segments int, duration time.Duration, err error)

	// RecordBatch is called after each batch. failed counts rays whose
	// result carries an error.
	RecordBatch(rays, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildTotalNanos atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QuerySegments   atomic.Int64
	QueryTotalNanos atomic.Int64
	BatchCount      atomic.Int64
	BatchRays       atomic.Int64
	BatchFailed     atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(segments int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QuerySegments.Add(int64(segments))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(rays, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchRays.Add(int64(rays))
	b.BatchFailed.Add(int64(failed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:     b.LoadCount.Load(),
		LoadErrors:    b.LoadErrors.Load(),
		BuildCount:    b.BuildCount.Load(),
		BuildErrors:   b.BuildErrors.Load(),
		BuildAvgNanos: avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QuerySegments: b.QuerySegments.Load(),
		QueryAvgNanos: avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		BatchCount:    b.BatchCount.Load(),
		BatchRays:     b.BatchRays.Load(),
		BatchFailed:   b.BatchFailed.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount     int64
	LoadErrors    int64
	BuildCount    int64
	BuildErrors   int64
	BuildAvgNanos int64
	QueryCount    int64
	QueryErrors   int64
	QuerySegments int64
	QueryAvgNanos int64
	BatchCount    int64
	BatchRays     int64
	BatchFailed   int64
}

// driverObserver forwards engine.Driver events to a MetricsCollector.
type driverObserver struct {
	mc MetricsCollector
}

var _ engine.MetricsObserver = driverObserver{}

func (o driverObserver) OnRay(duration time.Duration, segments int, err error) {
	o.mc.RecordQuery(segments, duration, err)
}

func (o driverObserver) OnBatch(duration time.Duration, rays int, failed int, _ error) {
	o.mc.RecordBatch(rays, failed, duration)
}
