// Package metrics exposes Prometheus instrumentation for the data pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline implements snotel.Observer on top of a Prometheus registry.
type Pipeline struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snotel_cache_hits_total",
			Help: "Station data requests served from cache.",
		}, []string{"station"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snotel_cache_misses_total",
			Help: "Station data requests that required an upstream fetch.",
		}, []string{"station"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snotel_fetch_failures_total",
			Help: "Upstream fetches that failed.",
		}, []string{"station"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snotel_fetch_duration_seconds",
			Help:    "Duration of successful upstream fetches.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(p.cacheHits, p.cacheMisses, p.fetchFailures, p.fetchDuration)
	return p
}

func (p *Pipeline) CacheHit(stationID string) {
	p.cacheHits.WithLabelValues(stationID).Inc()
}

func (p *Pipeline) CacheMiss(stationID string) {
	p.cacheMisses.WithLabelValues(stationID).Inc()
}

func (p *Pipeline) FetchSucceeded(stationID string, d time.Duration) {
	p.fetchDuration.Observe(d.Seconds())
}

func (p *Pipeline) FetchFailed(stationID string) {
	p.fetchFailures.WithLabelValues(stationID).Inc()
}
