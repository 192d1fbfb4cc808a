// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hvtag"

// Work results.
const (
	ResultTagged  = "tagged"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
	ResultPending = "pending"
)

var (
	registerOnce sync.Once

	worksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "works_processed_total",
		Help:      "Total number of works processed by result",
	}, []string{"result"})
	filesTagged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_tagged_total",
		Help:      "Total number of audio files tagged",
	})
	filesConverted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_converted_total",
		Help:      "Total number of audio files converted to MP3",
	})
	filesRelocated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_relocated_total",
		Help:      "Total number of files moved by folder normalization or work relocation",
	})
	parseFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "track_parse_failures_total",
		Help:      "Total number of files whose track number could not be parsed",
	})
	decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_decisions_total",
		Help:      "Total number of interactive strategy decisions by outcome",
	}, []string{"outcome"})
	workDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "work_duration_seconds",
		Help:      "Histogram of per-work processing time in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 12),
	})
	libraryWorks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "library_works",
		Help:      "Number of work folders found by the last scan",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(worksProcessed, filesTagged, filesConverted, filesRelocated,
			parseFailures, decisions, workDuration, libraryWorks)
	})
}

func IncWorkProcessed(result string) { worksProcessed.WithLabelValues(result).Inc() }
func AddFilesTagged(n int)           { filesTagged.Add(float64(n)) }
func AddFilesConverted(n int)        { filesConverted.Add(float64(n)) }
func AddFilesRelocated(n int)        { filesRelocated.Add(float64(n)) }
func AddParseFailures(n int)         { parseFailures.Add(float64(n)) }
func IncDecision(outcome string)     { decisions.WithLabelValues(outcome).Inc() }
func SetLibraryWorks(n int)          { libraryWorks.Set(float64(n)) }

func ObserveWorkDuration(d time.Duration) {
	workDuration.Observe(d.Seconds())
}
