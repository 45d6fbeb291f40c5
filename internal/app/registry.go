package app

import (
	"metricsindexer/apps/indexer/internal/config"
	"metricsindexer/apps/indexer/internal/usecase"
)

// BuildRegistry registers the ingest configuration of every use case from the
// loaded settings.
func BuildRegistry(cfg *config.Config) *usecase.Registry {
	r := usecase.NewRegistry()
	r.Register(usecase.IngestConfiguration{
		DbModel:              usecase.StringIndexer,
		InputTopic:           cfg.IngestMetricsTopic,
		OutputTopic:          cfg.SnubaMetricsTopic,
		UseCase:              usecase.ReleaseHealth,
		InternalMetricsTag:   "release-health",
		WritesLimiterOptions: cfg.WritesLimiterOptions,
	})
	r.Register(usecase.IngestConfiguration{
		DbModel:              usecase.PerfStringIndexer,
		InputTopic:           cfg.IngestPerformanceMetricsTopic,
		OutputTopic:          cfg.SnubaGenericMetricsTopic,
		UseCase:              usecase.Performance,
		InternalMetricsTag:   "perf",
		WritesLimiterOptions: cfg.WritesLimiterOptionsPerformance,
	})
	return r
}
