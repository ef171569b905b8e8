package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the analyzer pipeline.
type Metrics struct {
	AnalysesTotal    prometheus.Counter
	AnalysisFailures prometheus.Counter
	CardsExtracted   prometheus.Counter
	CacheHits        prometheus.Counter
	AnalyzeDuration  prometheus.Histogram
}

var (
	once sync.Once
	std  *Metrics
)

// Default returns the process-wide metrics instance. Collectors register in
// the default registry exactly once.
func Default() *Metrics {
	once.Do(func() {
		std = &Metrics{
			AnalysesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "board_analyses_total",
				Help: "Total number of board exports analyzed",
			}),
			AnalysisFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "board_analysis_failures_total",
				Help: "Total number of uploads that could not be analyzed",
			}),
			CardsExtracted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "board_cards_extracted_total",
				Help: "Total number of cards extracted from uploaded exports",
			}),
			CacheHits: promauto.NewCounter(prometheus.CounterOpts{
				Name: "board_report_cache_hits_total",
				Help: "Total number of analyses served from the Redis cache",
			}),
			AnalyzeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "board_analyze_duration_seconds",
				Help:    "Duration of parse+report builds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			}),
		}
	})
	return std
}

// ObserveAnalyze records the duration of one analysis. Call with time.Now()
// at the start of the operation.
func (m *Metrics) ObserveAnalyze(start time.Time) {
	m.AnalyzeDuration.Observe(time.Since(start).Seconds())
}
