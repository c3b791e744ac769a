// Package timeouts provides centralized timeout values for store queries,
// outbound calls and sync cycles.
//
// Timeouts can be configured at startup using Configure(). If not configured,
// the defaults below are used.
//
// Guidelines for choosing a timeout:
//   - Ping: store connectivity checks (health endpoint, reconnect job)
//   - Query: listing and chat-search reads
//   - Fetch: one attempt against the external roster API
//   - Augment: the optional text-generation call
//   - Sync: one whole sync cycle, including every upsert
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing    = 2 * time.Second
	DefaultQuery   = 10 * time.Second
	DefaultFetch   = 30 * time.Second
	DefaultAugment = 10 * time.Second
	DefaultSync    = 10 * time.Minute
)

var mu sync.RWMutex

var (
	ping    = DefaultPing
	query   = DefaultQuery
	fetch   = DefaultFetch
	augment = DefaultAugment
	syncDur = DefaultSync
)

// Ping returns the timeout for store connectivity checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Query returns the timeout for directory reads.
func Query() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return query
}

// Fetch returns the per-attempt timeout for the external roster API.
func Fetch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return fetch
}

// Augment returns the timeout for the optional text-generation call.
func Augment() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return augment
}

// Sync returns the upper bound for one sync cycle.
func Sync() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return syncDur
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping    time.Duration
	Query   time.Duration
	Fetch   time.Duration
	Augment time.Duration
	Sync    time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored,
// keeping the current (or default) values. Call it during startup before
// handlers and jobs are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Query > 0 {
		query = cfg.Query
	}
	if cfg.Fetch > 0 {
		fetch = cfg.Fetch
	}
	if cfg.Augment > 0 {
		augment = cfg.Augment
	}
	if cfg.Sync > 0 {
		syncDur = cfg.Sync
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	query = DefaultQuery
	fetch = DefaultFetch
	augment = DefaultAugment
	syncDur = DefaultSync
}

// ConfigureFromEnv reads timeout overrides from environment variables.
// Environment variables (all optional, defaults used if not set or invalid):
//   - TIMEOUT_PING, TIMEOUT_QUERY, TIMEOUT_FETCH, TIMEOUT_AUGMENT, TIMEOUT_SYNC
//
// Returns the number of timeouts successfully configured from environment.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0

	for _, e := range []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT_PING", &ping},
		{"TIMEOUT_QUERY", &query},
		{"TIMEOUT_FETCH", &fetch},
		{"TIMEOUT_AUGMENT", &augment},
		{"TIMEOUT_SYNC", &syncDur},
	} {
		if v := os.Getenv(e.name); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				*e.dst = d
				configured++
			}
		}
	}

	return configured
}

// Current returns the current timeout configuration as a Config struct.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:    ping,
		Query:   query,
		Fetch:   fetch,
		Augment: augment,
		Sync:    syncDur,
	}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Sync(), e.log, "employee sync")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
