package magma

import (
	"io"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// engineConfig holds configuration for the engine.
type engineConfig struct {
	logger     *zap.Logger
	rand       io.Reader
	registerer prometheus.Registerer
	workers    int64
	bonus      uint32
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		logger:  zap.NewNop(),
		workers: int64(runtime.NumCPU()),
	}
}

// Option configures the engine.
type Option func(*engineConfig)

// WithLogger sets the logger. Operations log at debug level and failures at
// warn level; key material never reaches the log.
// Default: a no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithRandReader sets the randomness source for keys, nonces, salts and
// shards. Intended for deterministic tests.
// Default: crypto/rand
func WithRandReader(r io.Reader) Option {
	return func(c *engineConfig) {
		c.rand = r
	}
}

// WithMetrics registers the engine's collectors with reg.
// Default: metrics disabled
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *engineConfig) {
		c.registerer = reg
	}
}

// WithMaxConcurrentDerivations bounds how many STACIE derivations run at
// once. Callers beyond the bound wait for a free worker or their context.
// Default: runtime.NumCPU()
func WithMaxConcurrentDerivations(n int) Option {
	return func(c *engineConfig) {
		c.workers = int64(n)
	}
}

// WithBonus adds rounds to every STACIE derivation, raising the cost for all
// passwords without requiring a password change.
// Default: 0
func WithBonus(bonus uint32) Option {
	return func(c *engineConfig) {
		c.bonus = bonus
	}
}
