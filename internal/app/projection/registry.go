// internal/app/projection/registry.go
package projection

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRegistrySize bounds the number of sessions with a held engine.
const DefaultRegistrySize = 256

// Registry keeps one engine per signed-in session. Least recently used
// engines are evicted; an evicted session simply reloads on its next request.
type Registry struct {
	gw   Gateway
	opts Options

	mu    sync.Mutex
	cache *lru.Cache[string, *Engine]
}

// NewRegistry returns a registry holding at most size engines.
func NewRegistry(size int, gw Gateway, opts Options) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	cache, err := lru.New[string, *Engine](size)
	if err != nil {
		return nil, err
	}
	return &Registry{gw: gw, opts: opts, cache: cache}, nil
}

// Engine returns the engine stored under key, creating it for id when absent
// or when the stored engine belongs to a different credential.
func (r *Registry) Engine(key string, id Identity) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache.Get(key); ok && e.id.Token() == id.Token() && e.id.AccountID() == id.AccountID() {
		return e
	}
	e := NewEngine(r.gw, id, r.opts)
	r.cache.Add(key, e)
	return e
}

// Drop forgets the engine stored under key.
func (r *Registry) Drop(key string) {
	r.cache.Remove(key)
}

// Len returns the number of held engines.
func (r *Registry) Len() int {
	return r.cache.Len()
}
