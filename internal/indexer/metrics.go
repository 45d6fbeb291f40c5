package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labelled by the use case's internal metrics tag.
var (
	lookupsPerBatch = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metrics_indexer_lookups_per_batch",
			Help:    "Number of strings looked up in storage per bulk record",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"internal_metrics_tag"},
	)

	postgresLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metrics_indexer_postgres_lookups_total",
			Help: "Strings looked up in postgres, by whether a row already existed",
		},
		[]string{"internal_metrics_tag", "db_hit"}, // true or false
	)

	rateLimitedWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metrics_indexer_rate_limited_writes_total",
			Help: "New strings not written because the writes limiter rejected them",
		},
		[]string{"internal_metrics_tag"},
	)

	bulkCreateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metrics_indexer_bulk_create_duration_seconds",
			Help:    "Time taken to insert new strings and read their ids back",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"internal_metrics_tag"},
	)
)
