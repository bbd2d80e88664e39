package ec

import (
	"io"
	"sync"

	"github.com/lavabit/magma-sub003/internal/crypto"
)

// Context carries the randomness source shared by key generation.
type Context struct {
	rand io.Reader
}

var (
	defaultMu  sync.Mutex
	defaultCtx *Context
)

// NewContext returns an isolated context reading randomness from r. A nil
// reader falls back to the process CSPRNG.
func NewContext(r io.Reader) *Context {
	return &Context{rand: r}
}

// Init installs the process-wide context. Calling it again replaces the
// previous context.
func Init(r io.Reader) *Context {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCtx = NewContext(r)
	return defaultCtx
}

// Default returns the process-wide context, initializing it on first use.
func Default() *Context {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtx == nil {
		defaultCtx = NewContext(nil)
	}
	return defaultCtx
}

// Shutdown drops the process-wide context. The next Default call builds a
// fresh one.
func Shutdown() {
	defaultMu.Lock()
	defaultCtx = nil
	defaultMu.Unlock()
}

// Rand returns the context's randomness source.
func (c *Context) Rand() io.Reader {
	if c == nil || c.rand == nil {
		return crypto.Reader()
	}
	return c.rand
}
