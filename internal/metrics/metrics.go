// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors register with the default registry via promauto.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain
	RelationToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_toggles_total",
			Help: "Favorite, cart and subscription toggles by outcome",
		},
		[]string{"kind", "state", "outcome"}, // outcome: "ok" or an error kind
	)

	ShoppingListDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Rendered shopping list downloads by format",
		},
		[]string{"format"},
	)
)

// RecordAPIRequest records one served request. route is the router pattern,
// not the raw path, so ids do not explode the label set.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordToggle(kind, state, outcome string) {
	RelationToggles.WithLabelValues(kind, state, outcome).Inc()
}

func RecordDownload(format string) {
	ShoppingListDownloads.WithLabelValues(format).Inc()
}
