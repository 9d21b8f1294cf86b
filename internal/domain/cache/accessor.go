package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/perchdesk/perch/internal/infrastructure/monitoring"
	"github.com/perchdesk/perch/internal/logging"
	"go.uber.org/zap"
)

// Options control one cache-through read.
//
// The zero value is the common path: serve from cache, fetch on miss.
type Options struct {
	// ForceRefresh deletes the existing record first and always fetches.
	ForceRefresh bool
	// NoFetch turns a miss into a zero value with no error, for read-only
	// inspection of what is cached.
	NoFetch bool
}

// Accessor bundles the store with logging and optional metrics. The
// generic entry points are free functions because Go methods cannot carry
// their own type parameters.
type Accessor struct {
	store   Store
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewAccessor creates a cache-through accessor over store.
func NewAccessor(store Store, log *logging.Logger) *Accessor {
	if log == nil {
		log = logging.NewNop()
	}
	return &Accessor{store: store, log: log}
}

// WithMetrics adds metrics tracking to the accessor.
func (a *Accessor) WithMetrics(metrics *monitoring.Metrics) *Accessor {
	a.metrics = metrics
	return a
}

// Store exposes the underlying store, for explicit resets.
func (a *Accessor) Store() Store {
	return a.store
}

// Get runs the cache-through algorithm for key:
//
//  1. ForceRefresh deletes the record first.
//  2. A storage read error short-circuits; it is not a miss.
//  3. A hit is returned as-is; fetch is never invoked on a hit.
//  4. A miss with NoFetch returns the zero value and no error.
//  5. Otherwise fetch runs; an error propagates without touching the
//     cache, a success is persisted and then returned.
func Get[T any](ctx context.Context, a *Accessor, key string, fetch func(context.Context) (T, error), opts Options) (T, error) {
	var zero T

	if opts.ForceRefresh {
		if err := a.store.Delete(ctx, key); err != nil {
			return zero, fmt.Errorf("cache delete %q: %w", key, err)
		}
		if a.metrics != nil {
			a.metrics.CacheDeletes.Inc()
		}
	}

	data, ok, err := a.store.Get(ctx, key)
	if err != nil {
		// Storage failure is distinct from a miss: no fallback fetch.
		return zero, fmt.Errorf("cache read %q: %w", key, err)
	}

	if ok && !opts.ForceRefresh {
		var value T
		if err := json.Unmarshal(data, &value); err != nil {
			return zero, fmt.Errorf("cache decode %q: %w", key, err)
		}
		if a.metrics != nil {
			a.metrics.CacheHits.Inc()
		}
		return value, nil
	}

	if a.metrics != nil {
		a.metrics.CacheMisses.Inc()
	}

	if opts.NoFetch {
		return zero, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		if a.metrics != nil {
			a.metrics.FetchErrors.Inc()
		}
		// The previously cached record, if any, stays intact.
		return zero, fmt.Errorf("fetch %q: %w", key, err)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("cache encode %q: %w", key, err)
	}
	if err := a.store.Set(ctx, key, encoded); err != nil {
		// The fetch succeeded but the write-back did not; surface the
		// storage error so the caller can distinguish it from stale data.
		return zero, fmt.Errorf("cache write %q: %w", key, err)
	}
	if a.metrics != nil {
		a.metrics.CacheWrites.Inc()
	}

	a.log.Debug("cache record refreshed", zap.String("key", key))
	return value, nil
}

// Reset explicitly deletes the record for key.
func (a *Accessor) Reset(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache reset %q: %w", key, err)
	}
	if a.metrics != nil {
		a.metrics.CacheDeletes.Inc()
	}
	return nil
}
