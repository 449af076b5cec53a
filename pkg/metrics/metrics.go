package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics records hit/miss counts for the catalog cache.
type CacheMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewCacheMetrics registers the cache metrics on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache lookups served from the backing store.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache lookups that fell through to compute.",
	})
	reg.MustRegister(hits, misses)
	return &CacheMetrics{hits: hits, misses: misses}
}

// IncHit increments the hit counter.
func (c *CacheMetrics) IncHit() {
	if c == nil || c.hits == nil {
		return
	}
	c.hits.Inc()
}

// IncMiss increments the miss counter.
func (c *CacheMetrics) IncMiss() {
	if c == nil || c.misses == nil {
		return
	}
	c.misses.Inc()
}

// RateLimitMetrics records admission decisions per outcome.
type RateLimitMetrics struct {
	decisions *prometheus.CounterVec
}

// NewRateLimitMetrics registers the limiter metrics on the provided registerer.
func NewRateLimitMetrics(reg prometheus.Registerer) *RateLimitMetrics {
	if reg == nil {
		return &RateLimitMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_decisions_total",
		Help: "Rate limiter admissions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(decisions)
	return &RateLimitMetrics{decisions: decisions}
}

// IncAllowed counts an admitted request.
func (r *RateLimitMetrics) IncAllowed() {
	r.inc("allowed")
}

// IncDenied counts a throttled request.
func (r *RateLimitMetrics) IncDenied() {
	r.inc("denied")
}

// IncFailOpen counts a request admitted because the backing store failed.
func (r *RateLimitMetrics) IncFailOpen() {
	r.inc("fail_open")
}

func (r *RateLimitMetrics) inc(outcome string) {
	if r == nil || r.decisions == nil {
		return
	}
	r.decisions.WithLabelValues(outcome).Inc()
}
