// Package metrics collects and exposes conduit's message-plane observability
// data.
//
// # Design rationale
//
// Two metric stores coexist in this package:
//
//  1. The in-process Metrics struct (per-buffer counters + time series),
//     read in-process through Global() and Snapshot(); this package
//     serves no HTTP endpoint for it.
//  2. A Prometheus registry (prometheus.go) for scraping by external
//     monitoring systems (Grafana, Alertmanager, etc.).
//
// # Concurrency — hot path
//
// RecordAccept is called on every Accept that goes through an
// InstrumentedTarget and must be as fast as possible. It uses atomic increments for global counters and dispatches a
// lightweight event onto a buffered channel (tsChan) for the time-series
// worker to process asynchronously, avoiding any lock on the hot path.
//
// The per-buffer BufferMetrics struct uses atomic operations exclusively;
// the sync.Map storing per-buffer entries is read-heavy and write-once per
// new buffer name, the ideal use case for sync.Map.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	timeSeriesBucketDuration = time.Minute
	timeSeriesBucketCount    = 24 * 60
)

// TimeSeriesBucket stores throughput for a single time bucket.
type TimeSeriesBucket struct {
	Timestamp    time.Time
	Accepts      int64
	Declines     int64
	TotalWaitUs  int64
	Count        int64
}

// Metrics collects and exposes conduit's message-plane metrics.
type Metrics struct {
	TotalAccepts   atomic.Int64
	TotalDeclines  atomic.Int64
	TotalPostponed atomic.Int64
	TotalMissed    atomic.Int64

	TotalWaitUs atomic.Int64
	MinWaitUs   atomic.Int64
	MaxWaitUs   atomic.Int64

	bufferMetrics sync.Map // buffer name -> *BufferMetrics

	timeSeriesMu    sync.RWMutex
	timeSeries      []*TimeSeriesBucket
	tsChan          chan timeSeriesEvent
	tsDroppedEvents atomic.Int64

	startTime time.Time
}

type timeSeriesEvent struct {
	waitUs    int64
	isDecline bool
}

// BufferMetrics tracks metrics for a single named buffer or node.
type BufferMetrics struct {
	Accepts     atomic.Int64
	Declines    atomic.Int64
	Postponed   atomic.Int64
	Missed      atomic.Int64
	TotalWaitUs atomic.Int64
	MinWaitUs   atomic.Int64
	MaxWaitUs   atomic.Int64
	QueueDepth  atomic.Int64 // current backlog, when the buffer reports one
}

var global = &Metrics{startTime: time.Now()}

func init() {
	global.MinWaitUs.Store(int64(^uint64(0) >> 1))
	global.tsChan = make(chan timeSeriesEvent, 8192)
	global.initTimeSeries()
	go global.processTimeSeriesLoop()
}

func (m *Metrics) initTimeSeries() {
	m.timeSeriesMu.Lock()
	defer m.timeSeriesMu.Unlock()

	now := time.Now().Truncate(timeSeriesBucketDuration)
	m.timeSeries = make([]*TimeSeriesBucket, timeSeriesBucketCount)
	for i := 0; i < timeSeriesBucketCount; i++ {
		m.timeSeries[i] = &TimeSeriesBucket{
			Timestamp: now.Add(time.Duration(i-(timeSeriesBucketCount-1)) * timeSeriesBucketDuration),
		}
	}
}

// Global returns the global metrics instance.
func Global() *Metrics {
	return global
}

// StartTime returns the time when the metrics system was initialized.
func StartTime() time.Time {
	return global.startTime
}

// RecordAccept records an Accept call's outcome and wait latency for a
// named buffer (e.g. "unbounded", "broadcast:fanout").
func (m *Metrics) RecordAccept(buffer string, waitUs int64, status string) {
	switch status {
	case "Accepted":
		m.TotalAccepts.Add(1)
	case "Declined":
		m.TotalDeclines.Add(1)
	case "Postponed":
		m.TotalPostponed.Add(1)
	case "Missed":
		m.TotalMissed.Add(1)
	}

	m.TotalWaitUs.Add(waitUs)
	updateMin(&m.MinWaitUs, waitUs)
	updateMax(&m.MaxWaitUs, waitUs)

	bm := m.getBufferMetrics(buffer)
	switch status {
	case "Accepted":
		bm.Accepts.Add(1)
	case "Declined":
		bm.Declines.Add(1)
	case "Postponed":
		bm.Postponed.Add(1)
	case "Missed":
		bm.Missed.Add(1)
	}
	bm.TotalWaitUs.Add(waitUs)
	updateMin(&bm.MinWaitUs, waitUs)
	updateMax(&bm.MaxWaitUs, waitUs)

	m.recordTimeSeries(waitUs, status == "Declined")
	RecordPrometheusAccept(buffer, status, waitUs)
}

// SetQueueDepth records the current backlog for a named buffer.
func (m *Metrics) SetQueueDepth(buffer string, depth int64) {
	bm := m.getBufferMetrics(buffer)
	bm.QueueDepth.Store(depth)
	RecordPrometheusQueueDepth(buffer, depth)
}

func (m *Metrics) recordTimeSeries(waitUs int64, isDecline bool) {
	select {
	case m.tsChan <- timeSeriesEvent{waitUs: waitUs, isDecline: isDecline}:
	default:
		m.tsDroppedEvents.Add(1)
	}
}

func (m *Metrics) processTimeSeriesLoop() {
	for evt := range m.tsChan {
		m.applyTimeSeriesEvent(evt.waitUs, evt.isDecline)
	}
}

func (m *Metrics) applyTimeSeriesEvent(waitUs int64, isDecline bool) {
	m.timeSeriesMu.Lock()
	defer m.timeSeriesMu.Unlock()

	now := time.Now().Truncate(timeSeriesBucketDuration)
	if len(m.timeSeries) == 0 {
		return
	}
	last := m.timeSeries[len(m.timeSeries)-1]
	if now.After(last.Timestamp) {
		shift := int(now.Sub(last.Timestamp) / timeSeriesBucketDuration)
		if shift >= len(m.timeSeries) {
			m.initUnlocked(now)
		} else {
			m.timeSeries = append(m.timeSeries[shift:], make([]*TimeSeriesBucket, shift)...)
			for i := len(m.timeSeries) - shift; i < len(m.timeSeries); i++ {
				m.timeSeries[i] = &TimeSeriesBucket{
					Timestamp: m.timeSeries[i-1].Timestamp.Add(timeSeriesBucketDuration),
				}
			}
		}
	}

	bucket := m.timeSeries[len(m.timeSeries)-1]
	if isDecline {
		bucket.Declines++
	} else {
		bucket.Accepts++
	}
	bucket.TotalWaitUs += waitUs
	bucket.Count++
}

func (m *Metrics) initUnlocked(now time.Time) {
	m.timeSeries = make([]*TimeSeriesBucket, timeSeriesBucketCount)
	for i := 0; i < timeSeriesBucketCount; i++ {
		m.timeSeries[i] = &TimeSeriesBucket{
			Timestamp: now.Add(time.Duration(i-(timeSeriesBucketCount-1)) * timeSeriesBucketDuration),
		}
	}
}

// Snapshot returns a copy of the time-series buckets for in-process readers.
func (m *Metrics) Snapshot() []TimeSeriesBucket {
	m.timeSeriesMu.RLock()
	defer m.timeSeriesMu.RUnlock()

	out := make([]TimeSeriesBucket, len(m.timeSeries))
	for i, b := range m.timeSeries {
		out[i] = *b
	}
	return out
}

func (m *Metrics) getBufferMetrics(buffer string) *BufferMetrics {
	v, _ := m.bufferMetrics.LoadOrStore(buffer, &BufferMetrics{})
	return v.(*BufferMetrics)
}

func updateMin(v *atomic.Int64, val int64) {
	for {
		cur := v.Load()
		if val >= cur {
			return
		}
		if v.CompareAndSwap(cur, val) {
			return
		}
	}
}

func updateMax(v *atomic.Int64, val int64) {
	for {
		cur := v.Load()
		if val <= cur {
			return
		}
		if v.CompareAndSwap(cur, val) {
			return
		}
	}
}
