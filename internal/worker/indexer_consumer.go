package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"metricsindexer/apps/indexer/internal/indexer"
	"metricsindexer/apps/indexer/internal/logger"
	"metricsindexer/apps/indexer/internal/usecase"
)

const indexTimeout = 30 * time.Second

// IndexerConsumer indexes the strings of metrics from one use case's input
// topic and forwards them to its output topic.
type IndexerConsumer struct {
	cfg     usecase.IngestConfiguration
	indexer StringIndexer
	pub     EventPublisher
}

func NewIndexerConsumer(configs ConfigSource, k usecase.Key, idx StringIndexer, pub EventPublisher) (*IndexerConsumer, error) {
	cfg, err := configs.Get(k)
	if err != nil {
		return nil, fmt.Errorf("indexer consumer: %w", err)
	}
	return &IndexerConsumer{cfg: cfg, indexer: idx, pub: pub}, nil
}

func (c *IndexerConsumer) InputTopic() string {
	return c.cfg.InputTopic
}

func (c *IndexerConsumer) OutputTopic() string {
	return c.cfg.OutputTopic
}

func (c *IndexerConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload MetricPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err, "topic", c.cfg.InputTopic)
		c.observe(outcomeInvalid)
		return nil
	}

	if payload.CorrelationID == "" {
		payload.CorrelationID = uuid.New().String()
	}
	ctx := logger.WithCorrelationID(context.Background(), payload.CorrelationID)
	ctx = logger.WithUseCase(ctx, c.cfg.UseCase)

	if payload.OrgID <= 0 || payload.Name == "" {
		slog.ErrorContext(ctx, "poison pill: metric without org or name", "org_id", payload.OrgID)
		c.observe(outcomeInvalid)
		return nil
	}

	strs := []string{payload.Name}
	for k, v := range payload.Tags {
		strs = append(strs, k, v)
	}
	for _, s := range strs {
		if indexer.TooLong(s) {
			// Poison Pill: the string can never be stored, don't retry
			slog.ErrorContext(ctx, "poison pill: string too long",
				"org_id", payload.OrgID,
				"metric", payload.Name,
				"length", len(s),
				"max_length", indexer.MaxStringLength,
			)
			c.observe(outcomeInvalid)
			return nil
		}
	}

	indexCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	results, err := c.indexer.BulkRecord(indexCtx, c.cfg.UseCase, indexer.OrgStrings{payload.OrgID: strs})
	if err != nil {
		slog.ErrorContext(ctx, "indexing failed", "error", err, "org_id", payload.OrgID)
		c.observe(outcomeRetry)
		return err // Retry
	}

	out, missing := c.translate(payload, results.Mapped()[payload.OrgID])
	if len(missing) > 0 {
		slog.WarnContext(ctx, "dropped metric with unindexed strings",
			"org_id", payload.OrgID,
			"metric", payload.Name,
			"missing", missing,
			"internal_metrics_tag", c.cfg.InternalMetricsTag,
		)
		c.observe(outcomeRateLimited)
		return nil
	}

	body, err := json.Marshal(out)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal indexed metric", "error", err)
		c.observe(outcomeInvalid)
		return nil
	}

	if err := c.pub.Publish(c.cfg.OutputTopic, body); err != nil {
		slog.ErrorContext(ctx, "publish failed", "error", err, "topic", c.cfg.OutputTopic)
		c.observe(outcomeRetry)
		return err // Retry
	}

	slog.DebugContext(ctx, "metric indexed", "org_id", payload.OrgID, "metric_id", out.MetricID, "topic", c.cfg.OutputTopic)
	c.observe(outcomeIndexed)
	return nil
}

func (c *IndexerConsumer) observe(outcome string) {
	messagesTotal.WithLabelValues(c.cfg.InternalMetricsTag, outcome).Inc()
}

func (c *IndexerConsumer) translate(p MetricPayload, ids map[string]int64) (IndexedMetricPayload, []string) {
	var missing []string
	lookup := func(s string) int64 {
		id, ok := ids[s]
		if !ok {
			missing = append(missing, s)
		}
		return id
	}

	out := IndexedMetricPayload{
		OrgID:         p.OrgID,
		ProjectID:     p.ProjectID,
		MetricID:      lookup(p.Name),
		Type:          p.Type,
		Value:         p.Value,
		Timestamp:     p.Timestamp,
		Tags:          make(map[int64]int64, len(p.Tags)),
		UseCaseID:     c.cfg.UseCase.String(),
		CorrelationID: p.CorrelationID,
	}
	for k, v := range p.Tags {
		out.Tags[lookup(k)] = lookup(v)
	}
	return out, missing
}
