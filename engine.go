package magma

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
	"github.com/lavabit/magma-sub003/internal/ec"
	"github.com/lavabit/magma-sub003/internal/stacie"
)

// Engine runs STACIE derivations and PRIME operations. It is safe for
// concurrent use; objects passed to it must not be shared across goroutines
// while an operation uses them.
type Engine struct {
	log     *zap.Logger
	ec      *ec.Context
	bonus   uint32
	workers *semaphore.Weighted
	metrics *metrics

	mu     sync.RWMutex
	closed bool
}

// New creates an engine.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.workers < 1 {
		return nil, coreerrors.Invalid("derivation workers must be at least 1, got %d", cfg.workers)
	}

	m, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		log:     cfg.logger,
		ec:      ec.NewContext(cfg.rand),
		bonus:   cfg.bonus,
		workers: semaphore.NewWeighted(cfg.workers),
		metrics: m,
	}
	e.log.Debug("engine started",
		zap.Int64("workers", cfg.workers),
		zap.Uint32("bonus", cfg.bonus),
		zap.String("ciphersuite", crypto.AlgsCiphersuite),
	)
	return e, nil
}

// Close marks the engine closed. Running derivations finish; new operations
// fail with ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		e.log.Debug("engine closed")
	}
	return nil
}

// Rounds returns the STACIE round count this engine uses for password.
func (e *Engine) Rounds(password string) (uint32, error) {
	rounds, err := stacie.RoundsCalculate([]byte(password), e.bonus)
	return rounds, e.finish("rounds", err)
}

func (e *Engine) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEngineClosed
	}
	return nil
}

// finish logs and counts the outcome of op and converts err to its public
// form.
func (e *Engine) finish(op string, err error, fields ...zap.Field) error {
	e.metrics.observe(op, err)
	if err != nil {
		e.log.Warn("operation failed", append(fields, zap.String("op", op), zap.Error(err))...)
		return wrapError(op, err)
	}
	e.log.Debug("operation complete", append(fields, zap.String("op", op))...)
	return nil
}

// derive runs fn on a worker goroutine once a derivation slot is free. If ctx
// ends first the caller gets ctx.Err() and the worker wipes whatever fn
// returns.
func derive[T any](ctx context.Context, e *Engine, op string, fn func() (T, error), wipe func(T)) (T, error) {
	var zero T
	if err := e.checkOpen(); err != nil {
		return zero, err
	}
	if err := e.workers.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	start := time.Now()

	go func() {
		defer e.workers.Release(1)
		v, err := fn()
		e.metrics.observeDerivation(op, time.Since(start))
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				wipe(r.value)
			}
		}()
		return zero, ctx.Err()
	}
}

// NewSalt returns a random account salt.
func (e *Engine) NewSalt() ([]byte, error) {
	return crypto.RandomBytes(e.ec.Rand(), stacie.SaltLength)
}

// NewNonce returns a random login nonce.
func (e *Engine) NewNonce() ([]byte, error) {
	return crypto.RandomBytes(e.ec.Rand(), stacie.NonceLength)
}

// NewShard returns a random server-held realm shard.
func (e *Engine) NewShard() ([]byte, error) {
	return crypto.RandomBytes(e.ec.Rand(), stacie.ShardLength)
}
