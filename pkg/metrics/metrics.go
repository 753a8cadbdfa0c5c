// Package metrics holds the forum's domain counters. HTTP metrics live in
// the middleware package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ThreadsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_threads_created_total",
			Help: "Threads created, by template",
		},
		[]string{"template"},
	)

	PostsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_posts_created_total",
			Help: "Posts created",
		},
	)

	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_moderation_actions_total",
			Help: "Moderation actions, by kind (ban, unban, role_change, ban_expired)",
		},
		[]string{"action"},
	)

	ContentCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_content_cache_lookups_total",
			Help: "External content cache lookups, by source and result (hit, miss)",
		},
		[]string{"source", "result"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_provider_errors_total",
			Help: "Failed calls to external catalog providers",
		},
		[]string{"source", "reason"},
	)
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_http_requests_total",
			Help: "HTTP requests, by method, route template, status and caller (anonymous, usuario, moderador, admin)",
		},
		[]string{"method", "route", "status", "caller"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forum_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route template",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forum_http_in_flight_requests",
			Help: "Requests currently being served",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by scope (ip, user)",
		},
		[]string{"scope"},
	)

	DBConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forum_db_connections",
			Help: "Database pool connections, by state (open, in_use, idle)",
		},
		[]string{"state"},
	)

	DBWaits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forum_db_wait_count",
			Help: "Total connections waited for since start",
		},
	)
)

// ObserveDBPool copies pool statistics into the connection gauges
func ObserveDBPool(open, inUse, idle int, waits int64) {
	DBConnections.WithLabelValues("open").Set(float64(open))
	DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	DBConnections.WithLabelValues("idle").Set(float64(idle))
	DBWaits.Set(float64(waits))
}
