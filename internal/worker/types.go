package worker

import (
	"context"
	"encoding/json"

	"metricsindexer/apps/indexer/internal/indexer"
	"metricsindexer/apps/indexer/internal/usecase"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type ConfigSource interface {
	Get(k usecase.Key) (usecase.IngestConfiguration, error)
}

type StringIndexer interface {
	BulkRecord(ctx context.Context, k usecase.Key, orgStrings indexer.OrgStrings) (*indexer.KeyResults, error)
}

// MetricPayload is a raw metric read from the use case's input topic.
type MetricPayload struct {
	OrgID     int64             `json:"org_id"`
	ProjectID int64             `json:"project_id"`
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     json.RawMessage   `json:"value"`
	Timestamp int64             `json:"timestamp"`
	Tags      map[string]string `json:"tags"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

// IndexedMetricPayload is published to the output topic. Tag keys and values
// are replaced by their ids; JSON object keys are the decimal tag key ids.
type IndexedMetricPayload struct {
	OrgID     int64           `json:"org_id"`
	ProjectID int64           `json:"project_id"`
	MetricID  int64           `json:"metric_id"`
	Type      string          `json:"type"`
	Value     json.RawMessage `json:"value"`
	Timestamp int64           `json:"timestamp"`
	Tags      map[int64]int64 `json:"tags"`
	UseCaseID string          `json:"use_case_id"`

	CorrelationID string `json:"correlation_id,omitempty"`
}
