package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchkit_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"layer"},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetchkit_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// CacheBytesWritten counts encoded entry bytes written, by layer.
	CacheBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchkit_cache_written_bytes_total",
			Help: "Total bytes of encoded responses written to the cache",
		},
		[]string{"layer"},
	)

	// NotModifiedResponses counts 304 answers served from cache.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetchkit_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// ConditionalRequestsSent counts requests sent with If-None-Match or If-Modified-Since.
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetchkit_conditional_requests_total",
			Help: "Total number of conditional requests sent",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchkit_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
