package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks catalog cache effectiveness.
type CacheMetrics struct {
	lookups       *prometheus.CounterVec
	invalidations prometheus.Counter
}

// NewCacheMetrics registers the cache metrics on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result (hit, miss, error).",
	}, []string{"result"})
	invalidations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_invalidations_total",
		Help: "Catalog cache namespace invalidations.",
	})
	reg.MustRegister(lookups, invalidations)
	return &CacheMetrics{lookups: lookups, invalidations: invalidations}
}

func (c *CacheMetrics) Hit()   { c.lookup("hit") }
func (c *CacheMetrics) Miss()  { c.lookup("miss") }
func (c *CacheMetrics) Error() { c.lookup("error") }

func (c *CacheMetrics) Invalidated() {
	if c == nil || c.invalidations == nil {
		return
	}
	c.invalidations.Inc()
}

func (c *CacheMetrics) lookup(result string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(result).Inc()
}
