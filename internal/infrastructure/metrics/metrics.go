// Package metrics holds the Prometheus collectors for HTTP requests, the
// cache and the order path. Collectors register with the default registry,
// which the server exposes on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency by method and route",
		},
		[]string{"method", "endpoint"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hmdp_cache_lookups_total",
			Help: "Cache reads by strategy and outcome (hit, miss, null, stale, error)",
		},
		[]string{"strategy", "result"},
	)

	cacheRebuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hmdp_cache_rebuilds_total",
			Help: "Background logical-expiry rebuilds by outcome",
		},
		[]string{"result"},
	)

	cacheDecodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hmdp_cache_decode_failures_total",
			Help: "Cached entries that could not be decoded and were treated as misses",
		},
	)

	seckillOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hmdp_seckill_orders_total",
			Help: "Seckill order attempts by outcome",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(httpDuration)
	prometheus.MustRegister(cacheLookups)
	prometheus.MustRegister(cacheRebuilds)
	prometheus.MustRegister(cacheDecodeFailures)
	prometheus.MustRegister(seckillOrders)
}

// HTTPRequest records one served request. route is the matched route
// pattern, so ids in the path do not fan out the label space.
func HTTPRequest(method, route, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func CacheLookup(strategy, result string) {
	cacheLookups.WithLabelValues(strategy, result).Inc()
}

// CacheRebuild records a rebuild outcome: ok, not_found, error, skipped or dropped.
func CacheRebuild(result string) {
	cacheRebuilds.WithLabelValues(result).Inc()
}

func CacheDecodeFailure() {
	cacheDecodeFailures.Inc()
}

// SeckillOrder records the outcome of one order attempt; "ok" or a rejection
// reason.
func SeckillOrder(result string) {
	seckillOrders.WithLabelValues(result).Inc()
}

// GetHTTPRequests exposes the request counter for tests.
func GetHTTPRequests() *prometheus.CounterVec {
	return httpRequests
}

// GetCacheLookups exposes the lookup counter for tests.
func GetCacheLookups() *prometheus.CounterVec {
	return cacheLookups
}

// GetSeckillOrders exposes the order counter for tests.
func GetSeckillOrders() *prometheus.CounterVec {
	return seckillOrders
}
