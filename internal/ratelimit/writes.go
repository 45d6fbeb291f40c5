// Package ratelimit throttles how many new strings each organization may write
// to the indexer per use case.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"metricsindexer/apps/indexer/internal/usecase"
)

// Options is the subset of a use case's writes limiter options understood here.
// A zero PerSecond disables limiting.
type Options struct {
	PerSecond float64
	Burst     int
}

// ParseOptions reads "per_second" and "burst" from raw. Other keys are ignored,
// as are values of the wrong type.
func ParseOptions(raw map[string]any) Options {
	var o Options
	if v, ok := number(raw["per_second"]); ok && v > 0 {
		o.PerSecond = v
	}
	if v, ok := number(raw["burst"]); ok && v > 0 {
		o.Burst = int(v)
	}
	if o.PerSecond > 0 && o.Burst == 0 {
		o.Burst = int(math.Max(1, math.Ceil(o.PerSecond)))
	}
	return o
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ConfigSource resolves the ingest configuration for a use case.
type ConfigSource interface {
	Get(k usecase.Key) (usecase.IngestConfiguration, error)
}

type limiterKey struct {
	useCase usecase.Key
	orgID   int64
}

// WritesLimiter keeps one token bucket per (use case, organization).
type WritesLimiter struct {
	configs ConfigSource
	now     func() time.Time

	mu       sync.Mutex
	limiters map[limiterKey]*rate.Limiter
}

func NewWritesLimiter(configs ConfigSource) *WritesLimiter {
	return &WritesLimiter{
		configs:  configs,
		now:      time.Now,
		limiters: make(map[limiterKey]*rate.Limiter),
	}
}

// Check splits strs into the strings org may write now and the ones it may not.
// No quota is consumed; call Commit once the accepted strings are stored.
func (l *WritesLimiter) Check(k usecase.Key, orgID int64, strs []string) (accepted, dropped []string, err error) {
	lim, err := l.limiter(k, orgID)
	if err != nil {
		return nil, nil, err
	}
	if lim == nil {
		return strs, nil, nil
	}

	n := int(math.Floor(lim.TokensAt(l.now())))
	n = max(0, min(n, len(strs)))
	return strs[:n], strs[n:], nil
}

// Commit consumes quota for n strings org has written.
func (l *WritesLimiter) Commit(k usecase.Key, orgID int64, n int) error {
	if n <= 0 {
		return nil
	}
	lim, err := l.limiter(k, orgID)
	if err != nil {
		return err
	}
	if lim == nil {
		return nil
	}

	// Concurrent writers may both pass Check; the bucket then goes into debt
	// and later calls wait for it to refill.
	lim.ReserveN(l.now(), min(n, lim.Burst()))
	return nil
}

// limiter returns nil when the use case is unlimited.
func (l *WritesLimiter) limiter(k usecase.Key, orgID int64) (*rate.Limiter, error) {
	key := limiterKey{useCase: k, orgID: orgID}

	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[key]; ok {
		return lim, nil
	}

	cfg, err := l.configs.Get(k)
	if err != nil {
		return nil, err
	}
	opts := ParseOptions(cfg.WritesLimiterOptions)

	var lim *rate.Limiter
	if opts.PerSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.PerSecond), opts.Burst)
	}
	l.limiters[key] = lim
	return lim, nil
}
