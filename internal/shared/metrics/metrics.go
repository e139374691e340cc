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
	parseStartedTotal   atomic.Uint64
	parseSucceededTotal atomic.Uint64
	parseFallbackTotal  atomic.Uint64
	parseFailedTotal    atomic.Uint64

	extractNativePDFTotal atomic.Uint64
	extractDocumentTotal  atomic.Uint64
	extractOCRTotal       atomic.Uint64

	parseDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 180000})
)

// IncParseStarted increments the started counter.
func IncParseStarted() {
	parseStartedTotal.Add(1)
}

// IncParseSucceeded counts parses structured by the AI path.
func IncParseSucceeded() {
	parseSucceededTotal.Add(1)
}

// IncParseFallback counts parses completed by the heuristic parser.
func IncParseFallback() {
	parseFallbackTotal.Add(1)
}

// IncParseFailed increments the failed counter.
func IncParseFailed() {
	parseFailedTotal.Add(1)
}

// IncExtractMethod counts the extraction strategy that produced the final text.
func IncExtractMethod(method string) {
	switch method {
	case "native_pdf":
		extractNativePDFTotal.Add(1)
	case "document":
		extractDocumentTotal.Add(1)
	case "ocr":
		extractOCRTotal.Add(1)
	}
}

// ObserveParseDurationMs records a parse duration in milliseconds.
func ObserveParseDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	parseDuration.Observe(value)
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
	writeCounter(&buf, "parse_started_total", "Total parses started", parseStartedTotal.Load())
	writeCounter(&buf, "parse_succeeded_total", "Total parses structured by the AI path", parseSucceededTotal.Load())
	writeCounter(&buf, "parse_fallback_total", "Total parses completed by the heuristic parser", parseFallbackTotal.Load())
	writeCounter(&buf, "parse_failed_total", "Total parses failed", parseFailedTotal.Load())
	writeLabeledCounter(&buf, "extract_method_total", "Extractions by final method", "method", []labeled{
		{"native_pdf", extractNativePDFTotal.Load()},
		{"document", extractDocumentTotal.Load()},
		{"ocr", extractOCRTotal.Load()},
	})
	writeHistogram(&buf, "parse_duration_ms", "Parse duration in milliseconds", parseDuration.Snapshot())
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

type labeled struct {
	value string
	count uint64
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, series []labeled) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	for _, s := range series {
		fmt.Fprintf(buf, "%s{%s=\"%s\"} %d\n", name, label, s.value, s.count)
	}
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
