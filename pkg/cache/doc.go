// Package cache provides the Redis store used between runs.
//
// Two kinds of data are kept:
//
// - The domain directory, cached with a freshness TTL. A stale copy stays
// readable for a grace period and is served when the directory endpoint fails.
// - The last DomainResult per domain, kept without expiry so the next run can
// report how each domain's count changed.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	// Domain directory with fallback
//	lister := cache.NewCachedLister(apiClient, manager, 10*time.Minute)
//	domains, err := lister.FetchDomains(ctx)
//
//	// Previous results
//	results := cache.NewResultStore(manager)
//	prev, err := results.Previous(ctx, "https://a.example")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// first run for this domain
//	}
//
// # Keys
//
//   - orders:domains - JSON array of domain base URLs
//   - orders:result:<domain> - JSON DomainResult, domain without trailing slash
//
// # Metrics
//
//   - orders_cache_operations_total{operation, result} - get/set/delete outcomes
//   - orders_cache_fallbacks_total - stale domain lists served after a fetch failure
package cache
