package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/havenhq/haven/internal/metrics"
)

var errBoom = errors.New("boom")

func TestMetrics_Requests(t *testing.T) {
	t.Parallel()

	m := &metrics.Metrics{}
	m.RecordRequest(100*time.Millisecond, nil)
	m.RecordRequest(300*time.Millisecond, errBoom)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.RequestsTotal)
	assert.Equal(t, int64(1), s.RequestErrors)
	assert.Equal(t, 200*time.Millisecond, s.AvgRequestLatency)
}

func TestMetrics_Fallbacks(t *testing.T) {
	t.Parallel()

	m := &metrics.Metrics{}
	m.RecordFallback(false)
	m.RecordFallback(true)
	m.RecordFallback(true)

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.FallbackAttempts)
	assert.Equal(t, int64(2), s.FallbackSuccesses)
}

func TestMetrics_Storage(t *testing.T) {
	t.Parallel()

	m := &metrics.Metrics{}
	m.RecordStorageRead(nil)
	m.RecordStorageRead(errBoom)
	m.RecordStorageWrite(nil)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.StorageReads)
	assert.Equal(t, int64(1), s.StorageWrites)
	assert.Equal(t, int64(1), s.StorageErrors)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()

	m := &metrics.Metrics{}
	m.RecordRequest(time.Millisecond, nil)
	m.RecordDetectionPass()
	m.Reset()

	s := m.Snapshot()
	assert.Equal(t, int64(0), s.RequestsTotal)
	assert.Equal(t, int64(0), s.DetectionPasses)
	assert.Equal(t, time.Duration(0), s.AvgRequestLatency)
}
