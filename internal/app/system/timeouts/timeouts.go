// Package timeouts holds the deadlines applied to remote-service work.
//
// Every request to the remote service runs under one of these:
//   - Ping: health checks against the remote service
//   - Read: a reload of both collections, or a narrowed author list
//   - Mutation: one change plus the reload that follows it
//   - Export: building a spreadsheet from a fresh reload
//   - Audit: writing one audit event
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults, used until Configure or ConfigureFromEnv says otherwise.
const (
	DefaultPing     = 2 * time.Second
	DefaultRead     = 10 * time.Second
	DefaultMutation = 20 * time.Second
	DefaultExport   = 30 * time.Second
	DefaultAudit    = 3 * time.Second
)

// Config holds timeout values. Zero values are ignored.
type Config struct {
	Ping     time.Duration
	Read     time.Duration
	Mutation time.Duration
	Export   time.Duration
	Audit    time.Duration
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{
		Ping:     DefaultPing,
		Read:     DefaultRead,
		Mutation: DefaultMutation,
		Export:   DefaultExport,
		Audit:    DefaultAudit,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

func Ping() time.Duration     { return get(func(c Config) time.Duration { return c.Ping }) }
func Read() time.Duration     { return get(func(c Config) time.Duration { return c.Read }) }
func Mutation() time.Duration { return get(func(c Config) time.Duration { return c.Mutation }) }
func Export() time.Duration   { return get(func(c Config) time.Duration { return c.Export }) }
func Audit() time.Duration    { return get(func(c Config) time.Duration { return c.Audit }) }

// Configure overrides the non-zero values in cfg. Call it at startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	current = merge(current, cfg)
}

func merge(base, over Config) Config {
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&base.Ping, over.Ping)
	set(&base.Read, over.Read)
	set(&base.Mutation, over.Mutation)
	set(&base.Export, over.Export)
	set(&base.Audit, over.Audit)
	return base
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// ConfigureFromEnv reads CHAOSPANEL_TIMEOUT_{PING,READ,MUTATION,EXPORT,AUDIT}
// as Go durations ("2s", "500ms"). Unset or invalid values are skipped. It
// returns how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for name, dst := range map[string]*time.Duration{
		"CHAOSPANEL_TIMEOUT_PING":     &cfg.Ping,
		"CHAOSPANEL_TIMEOUT_READ":     &cfg.Read,
		"CHAOSPANEL_TIMEOUT_MUTATION": &cfg.Mutation,
		"CHAOSPANEL_TIMEOUT_EXPORT":   &cfg.Export,
		"CHAOSPANEL_TIMEOUT_AUDIT":    &cfg.Audit,
	} {
		if d, err := time.ParseDuration(os.Getenv(name)); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout wraps context.WithTimeout and logs a warning from the cancel
// func when the deadline was what ended the work.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Mutation(), h.Log, "delete report")
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
