// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Provider request metrics
	requestsTotal  atomic.Int64
	requestErrors  atomic.Int64
	requestLatency atomic.Int64 // nanoseconds, cumulative

	// Fallback metrics
	fallbackAttempts  atomic.Int64
	fallbackSuccesses atomic.Int64

	// Detection metrics
	detectionPasses atomic.Int64

	// Storage metrics
	storageReads  atomic.Int64
	storageWrites atomic.Int64
	storageErrors atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRequest records a provider request with its duration and outcome.
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.requestsTotal.Add(1)
	m.requestLatency.Add(duration.Nanoseconds())
	if err != nil {
		m.requestErrors.Add(1)
	}
}

// RecordFallback records a fallback attempt to another provider.
func (m *Metrics) RecordFallback(succeeded bool) {
	m.fallbackAttempts.Add(1)
	if succeeded {
		m.fallbackSuccesses.Add(1)
	}
}

// RecordDetectionPass records one provider detection pass.
func (m *Metrics) RecordDetectionPass() {
	m.detectionPasses.Add(1)
}

// RecordStorageRead records a storage read.
func (m *Metrics) RecordStorageRead(err error) {
	m.storageReads.Add(1)
	if err != nil {
		m.storageErrors.Add(1)
	}
}

// RecordStorageWrite records a storage write.
func (m *Metrics) RecordStorageWrite(err error) {
	m.storageWrites.Add(1)
	if err != nil {
		m.storageErrors.Add(1)
	}
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	RequestsTotal     int64
	RequestErrors     int64
	AvgRequestLatency time.Duration
	FallbackAttempts  int64
	FallbackSuccesses int64
	DetectionPasses   int64
	StorageReads      int64
	StorageWrites     int64
	StorageErrors     int64
}

// Snapshot returns a consistent-enough copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		RequestsTotal:     m.requestsTotal.Load(),
		RequestErrors:     m.requestErrors.Load(),
		FallbackAttempts:  m.fallbackAttempts.Load(),
		FallbackSuccesses: m.fallbackSuccesses.Load(),
		DetectionPasses:   m.detectionPasses.Load(),
		StorageReads:      m.storageReads.Load(),
		StorageWrites:     m.storageWrites.Load(),
		StorageErrors:     m.storageErrors.Load(),
	}
	if s.RequestsTotal > 0 {
		s.AvgRequestLatency = time.Duration(m.requestLatency.Load() / s.RequestsTotal)
	}
	return s
}

// Reset zeroes all counters. Intended for tests.
func (m *Metrics) Reset() {
	m.requestsTotal.Store(0)
	m.requestErrors.Store(0)
	m.requestLatency.Store(0)
	m.fallbackAttempts.Store(0)
	m.fallbackSuccesses.Store(0)
	m.detectionPasses.Store(0)
	m.storageReads.Store(0)
	m.storageWrites.Store(0)
	m.storageErrors.Store(0)
}
