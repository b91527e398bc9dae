// Package modelcache holds heavy collaborator clients for the lifetime of a
// worker process. Constructing them is expensive (remote model warm-up), so
// each is built once on first use and reused across jobs. The cache is passed
// through the pipeline explicitly rather than living in package globals.
package modelcache

import (
	"sync"
)

// Cache is a per-process get-or-create registry. Constructors must be
// idempotent and side-effect free beyond their own allocation.
type Cache struct {
	mu     sync.Mutex
	values map[string]any
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{values: make(map[string]any)}
}

// GetOrCreate returns the cached value for key, building it with build on
// first use. The lock is held across build so a value is constructed at most
// once per process.
func GetOrCreate[T any](c *Cache, key string, build func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.values[key]; ok {
		return v.(T), nil
	}
	v, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	c.values[key] = v
	return v, nil
}
