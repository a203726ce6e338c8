// Package cache provides an optional Redis-backed HTTP response cache for
// the shared fetch client.
//
// Features:
//
// - Freshness from Cache-Control max-age, then Expires, then DefaultTTL
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - no-store responses are never written
// - Deterministic cache keys derived from the request URL
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//	key := cache.KeyForURL("https://pokeapi.co/api/v2/pokemon/pikachu")
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch, then:
//		entry, _ = cache.ResponseToEntry(resp)
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//	// a 304 answer is served from entry via cache.EntryToResponse
//
// # Metrics
//
//   - fetchkit_cache_hits_total{layer="redis"}
//   - fetchkit_cache_misses_total
//   - fetchkit_cache_written_bytes_total{layer="redis"}
//   - fetchkit_304_responses_total
//   - fetchkit_conditional_requests_total
//   - fetchkit_cache_errors_total{operation}
package cache
