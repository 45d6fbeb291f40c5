package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeIndexed     = "indexed"
	outcomeRateLimited = "rate_limited"
	outcomeInvalid     = "invalid"
	outcomeRetry       = "retry"
)

var messagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "metrics_indexer_messages_total",
		Help: "Metric messages handled by the indexer consumer",
	},
	[]string{"internal_metrics_tag", "outcome"},
)
