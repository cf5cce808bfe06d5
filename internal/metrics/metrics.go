package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Vendor API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aliexpress_api_requests_total",
			Help: "Total number of AliExpress affiliate API calls",
		},
		[]string{"method", "status"}, // status: success, error, invalid_response
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aliexpress_api_request_duration_seconds",
			Help:    "Duration of AliExpress affiliate API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	APIRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aliexpress_api_rate_limit_waits_total",
			Help: "Total number of times a vendor API call waited for the rate limiter",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_http_requests_total",
			Help: "Total number of outbound HTTP request attempts",
		},
		[]string{"status"}, // status: success, retry, error
	)

	HTTPRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbound_http_retries_total",
			Help: "Total number of outbound HTTP request retries",
		},
	)

	RetryAfterWaits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outbound_http_retry_after_wait_seconds",
			Help:    "Duration of Retry-After waits in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // cache: products, links, resolved_urls
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses (including expired entries)",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of entries per cache",
		},
		[]string{"cache"},
	)

	CacheSweepRemovals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_sweep_removals_total",
			Help: "Total number of entries removed by periodic sweeps",
		},
		[]string{"cache"},
	)

	// Resolver metrics
	ShortLinksResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "short_links_resolved_total",
			Help: "Total number of short link resolutions",
		},
		[]string{"status"}, // status: cached, resolved, failed
	)

	ProductsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "products_resolved_total",
			Help: "Total number of product ids extracted from incoming messages",
		},
	)

	// Affiliate link batching
	BatchLinkRequestSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_link_request_urls",
			Help:    "Number of uncached URLs per batch link generation call",
			Buckets: []float64{1, 2, 4, 6, 8, 12, 16, 24},
		},
	)

	// Bot metrics
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_processed_total",
			Help: "Total number of Telegram messages handled",
		},
		[]string{"outcome"}, // outcome: products, no_links, no_products, command
	)

	ProductsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_products_processed_total",
			Help: "Total number of products run through the offer pipeline",
		},
		[]string{"details_source"}, // details_source: api, scraped, none
	)

	ScrapeFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_fallbacks_total",
			Help: "Total number of page-scraping fallbacks after API misses",
		},
		[]string{"status"}, // status: success, failed
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips to open",
		},
		[]string{"name"},
	)
)
