package usecase

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrNotRegistered is returned by Get when no configuration exists for a use case.
var ErrNotRegistered = errors.New("ingest configuration not registered")

// IngestConfiguration bundles the topics, storage backend and writes limiter
// options of one use case.
type IngestConfiguration struct {
	DbModel     DbKey  `json:"db_model"`
	InputTopic  string `json:"input_topic"`
	OutputTopic string `json:"output_topic"`
	UseCase     Key    `json:"use_case_id"`

	// InternalMetricsTag labels internal metrics; empty when unset.
	InternalMetricsTag string `json:"internal_metrics_tag,omitempty"`

	// WritesLimiterOptions is handed to the writes limiter as-is.
	WritesLimiterOptions map[string]any `json:"writes_limiter_cluster_options"`
}

func (c IngestConfiguration) clone() IngestConfiguration {
	c.WritesLimiterOptions = maps.Clone(c.WritesLimiterOptions)
	return c
}

// Registry maps each use case to its IngestConfiguration. It is populated once
// during startup and read by workers afterwards; it is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	configs map[Key]IngestConfiguration
}

func NewRegistry() *Registry {
	return &Registry{configs: make(map[Key]IngestConfiguration)}
}

// Register stores cfg under cfg.UseCase, replacing any previous entry.
func (r *Registry) Register(cfg IngestConfiguration) {
	cfg = cfg.clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.UseCase] = cfg
}

// Get returns the configuration registered for k.
func (r *Registry) Get(k Key) (IngestConfiguration, error) {
	r.mu.RLock()
	cfg, ok := r.configs[k]
	r.mu.RUnlock()
	if !ok {
		return IngestConfiguration{}, fmt.Errorf("%w: %s", ErrNotRegistered, k)
	}
	return cfg.clone(), nil
}

// Keys returns the registered use cases in sorted order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.configs))
}

// All returns a copy of every registered configuration, ordered by use case.
func (r *Registry) All() []IngestConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]IngestConfiguration, 0, len(r.configs))
	for _, k := range slices.Sorted(maps.Keys(r.configs)) {
		out = append(out, r.configs[k].clone())
	}
	return out
}
