package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsProcessedTotal   atomic.Uint64
	documentsFailedTotal      atomic.Uint64
	normalizationPartialTotal atomic.Uint64
	reaggregationsTotal       atomic.Uint64
	reaggregationsFailedTotal atomic.Uint64
	llmCallsTotal             atomic.Uint64
	llmCallErrorsTotal        atomic.Uint64

	processingDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDocumentProcessed counts a document whose extracted record was stored.
func IncDocumentProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncDocumentFailed counts a document that produced no extracted record.
func IncDocumentFailed() {
	documentsFailedTotal.Add(1)
}

// IncNormalizationPartial counts migrations where at least one category failed.
func IncNormalizationPartial() {
	normalizationPartialTotal.Add(1)
}

// IncReaggregation counts a completed re-aggregation.
func IncReaggregation() {
	reaggregationsTotal.Add(1)
}

// IncReaggregationFailed counts a rolled back re-aggregation.
func IncReaggregationFailed() {
	reaggregationsFailedTotal.Add(1)
}

// IncLLMCall counts an LLM extraction call; failed calls also bump the error counter.
func IncLLMCall(failed bool) {
	llmCallsTotal.Add(1)
	if failed {
		llmCallErrorsTotal.Add(1)
	}
}

// ObserveProcessingDurationMs records a document processing duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
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
	writeCounter(&buf, "documents_processed_total", "Documents with a stored extracted record", documentsProcessedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Documents that failed text extraction", documentsFailedTotal.Load())
	writeCounter(&buf, "normalization_partial_total", "Migrations with at least one failed category", normalizationPartialTotal.Load())
	writeCounter(&buf, "reaggregations_total", "Completed profile re-aggregations", reaggregationsTotal.Load())
	writeCounter(&buf, "reaggregations_failed_total", "Rolled back profile re-aggregations", reaggregationsFailedTotal.Load())
	writeCounter(&buf, "llm_calls_total", "LLM extraction calls", llmCallsTotal.Load())
	writeCounter(&buf, "llm_call_errors_total", "Failed LLM extraction calls", llmCallErrorsTotal.Load())
	writeHistogram(&buf, "document_processing_duration_ms", "Document processing duration in milliseconds", processingDuration.Snapshot())
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
