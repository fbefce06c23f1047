// Package metrics exposes the Prometheus instrumentation for the engagement engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Toggle engine
	EngagementToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_toggles_total",
			Help: "Total number of applied like/dislike toggles",
		},
		[]string{"subject_kind", "action"}, // action: created, updated, deleted
	)

	EngagementConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_toggle_conflicts_total",
			Help: "Total number of toggles that lost a concurrent write race",
		},
		[]string{"target", "outcome"}, // outcome: retried, failed
	)

	SubscriptionToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_toggles_total",
			Help: "Total number of applied subscription toggles",
		},
		[]string{"action"},
	)

	// Summary cache
	SummaryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_summary_cache_hits_total",
			Help: "Total number of engagement summary cache hits",
		},
	)

	SummaryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_summary_cache_misses_total",
			Help: "Total number of engagement summary cache misses",
		},
	)

	// Discovery
	DiscoveryQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_query_duration_seconds",
			Help:    "Duration of discovery listing queries in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"listing", "mode"}, // mode: search, sample, plain
	)

	DiscoveryQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_query_errors_total",
			Help: "Total number of failed discovery listing queries",
		},
		[]string{"listing"},
	)

	// Watch activity
	VideoViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_views_total",
			Help: "Total number of recorded video views",
		},
	)

	WatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_update_failures_total",
			Help: "Total number of failed watch activity updates",
		},
		[]string{"stage"},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of domain events published to the broker",
		},
		[]string{"routing_key", "status"}, // status: success, error
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status_code"},
	)
)

// RecordEngagementToggle records one applied like/dislike mutation.
func RecordEngagementToggle(kind, action string) {
	EngagementToggles.WithLabelValues(kind, action).Inc()
}

// RecordConflict records a lost write race. retried is false when the
// operation gave up.
func RecordConflict(target string, retried bool) {
	outcome := "failed"
	if retried {
		outcome = "retried"
	}
	EngagementConflicts.WithLabelValues(target, outcome).Inc()
}

// RecordSubscriptionToggle records one applied subscription mutation.
func RecordSubscriptionToggle(action string) {
	SubscriptionToggles.WithLabelValues(action).Inc()
}

// RecordSummaryCache records a summary cache lookup.
func RecordSummaryCache(hit bool) {
	if hit {
		SummaryCacheHits.Inc()
		return
	}
	SummaryCacheMisses.Inc()
}

// RecordDiscoveryQuery records the latency of one listing and its failure, if any.
func RecordDiscoveryQuery(listing, mode string, duration time.Duration, err error) {
	DiscoveryQueryDuration.WithLabelValues(listing, mode).Observe(duration.Seconds())
	if err != nil {
		DiscoveryQueryErrors.WithLabelValues(listing).Inc()
	}
}

// RecordView records a successful watch activity update.
func RecordView() {
	VideoViews.Inc()
}

// RecordWatchFailure records a failed watch activity update at the given stage.
func RecordWatchFailure(stage string) {
	WatchFailures.WithLabelValues(stage).Inc()
}

// RecordEventPublish records the outcome of one broker publish.
func RecordEventPublish(routingKey string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(routingKey, status).Inc()
}

// RecordHTTPRequest records the latency of one HTTP request.
func RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, statusCode).Observe(duration.Seconds())
}
