// Package metrics exposes the Prometheus instruments shared by the
// background workers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FeedRowsInserted counts feed entries actually written by the bulk
	// writer; FeedRowsSkipped counts candidates absorbed by the unique key.
	FeedRowsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedline_feed_rows_inserted_total",
		Help: "Feed entries inserted into the materialized store.",
	})
	FeedRowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedline_feed_rows_skipped_total",
		Help: "Feed entry candidates skipped as duplicates.",
	})

	JobRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedline_job_retries_total",
		Help: "Background job attempts that failed and were retried.",
	}, []string{"type"})

	JobsDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedline_jobs_dead_lettered_total",
		Help: "Background jobs that exhausted their retry budget.",
	}, []string{"type"})

	CacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedline_cache_invalidations_total",
		Help: "Per-follower feed cache invalidations performed.",
	})
	CacheInvalidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedline_cache_invalidation_failures_total",
		Help: "Per-follower feed cache invalidations that failed (best-effort).",
	})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
