package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultStale = "stale"
	resultOK    = "ok"
	resultError = "error"
)

var (
	// CacheOperations tracks cache operations by outcome.
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_cache_operations_total",
			Help: "Total number of cache operations by operation and result",
		},
		[]string{"operation", "result"}, // "get", "set", "delete" / "hit", "miss", "stale", "ok", "error"
	)

	// CacheFallbacks tracks stale domain lists served because the directory failed.
	CacheFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_cache_fallbacks_total",
			Help: "Total number of stale domain lists served after a directory fetch failure",
		},
	)
)
