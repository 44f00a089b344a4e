package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	extractionStartedTotal   atomic.Uint64
	extractionCompletedTotal atomic.Uint64
	extractionFailedTotal    atomic.Uint64
	extractionJobsReceived   atomic.Uint64
	extractionJobsCompleted  atomic.Uint64
	extractionJobsFailed     atomic.Uint64
	extractionJobsDeleted    atomic.Uint64
	pushSucceededTotal       atomic.Uint64
	pushFailedTotal          atomic.Uint64

	extractionDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncExtractionStarted increments the started counter.
func IncExtractionStarted() {
	extractionStartedTotal.Add(1)
}

// IncExtractionCompleted increments the completed counter.
func IncExtractionCompleted() {
	extractionCompletedTotal.Add(1)
}

// IncExtractionFailed increments the failed counter.
func IncExtractionFailed() {
	extractionFailedTotal.Add(1)
}

// IncExtractionJobsReceived counts queue messages picked up by the worker.
func IncExtractionJobsReceived() {
	extractionJobsReceived.Add(1)
}

// IncExtractionJobsCompleted counts queue messages fully processed and deleted.
func IncExtractionJobsCompleted() {
	extractionJobsCompleted.Add(1)
}

// IncExtractionJobsFailed counts queue messages whose processing failed.
func IncExtractionJobsFailed() {
	extractionJobsFailed.Add(1)
}

// IncExtractionJobsDeletedUnrecoverable counts malformed messages deleted
// without processing.
func IncExtractionJobsDeletedUnrecoverable() {
	extractionJobsDeleted.Add(1)
}

// IncPushSucceeded increments the successful-push counter.
func IncPushSucceeded() {
	pushSucceededTotal.Add(1)
}

// IncPushFailed increments the failed-push counter.
func IncPushFailed() {
	pushFailedTotal.Add(1)
}

// ObserveExtractionDurationMs records an extraction duration in milliseconds.
func ObserveExtractionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "extraction_started_total", "Total extractions started", extractionStartedTotal.Load())
	writeCounter(&buf, "extraction_completed_total", "Total extractions completed", extractionCompletedTotal.Load())
	writeCounter(&buf, "extraction_failed_total", "Total extractions failed", extractionFailedTotal.Load())
	writeCounter(&buf, "extraction_jobs_received_total", "Total extraction queue messages received", extractionJobsReceived.Load())
	writeCounter(&buf, "extraction_jobs_completed_total", "Total extraction queue messages completed", extractionJobsCompleted.Load())
	writeCounter(&buf, "extraction_jobs_failed_total", "Total extraction queue messages failed", extractionJobsFailed.Load())
	writeCounter(&buf, "extraction_jobs_deleted_unrecoverable_total", "Total malformed queue messages deleted without processing", extractionJobsDeleted.Load())
	writeCounter(&buf, "push_succeeded_total", "Total integration pushes succeeded", pushSucceededTotal.Load())
	writeCounter(&buf, "push_failed_total", "Total integration pushes failed", pushFailedTotal.Load())
	writeHistogram(&buf, "extraction_duration_ms", "Extraction duration in milliseconds", extractionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
