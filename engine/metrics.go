package engine

import "time"

// MetricsObserver defines the interface for observing driver events.
type MetricsObserver interface {
	// OnRay is called after each ray query.
	OnRay(duration time.Duration, segments int, err error)

	// OnBatch is called when a batch completes.
	OnBatch(duration time.Duration, rays int, failed int, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (o *NoopMetricsObserver) OnRay(duration time.Duration, segments int, err error)          {}
func (o *NoopMetricsObserver) OnBatch(duration time.Duration, rays int, failed int, err error) {}
