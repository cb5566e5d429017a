package mimicmotion

import (
	"sync"
)

// ModelCache keeps loaded pipeline handles resident between sampling runs,
// keyed by checkpoint variant and precision.  It backs the sampler's
// keep-model-loaded behaviour so repeat runs skip the load step
type ModelCache struct {
	mu     sync.Mutex
	models map[string]*Model
	close  sync.Once
}

// NewModelCache creates an empty model cache
func NewModelCache() *ModelCache {
	return &ModelCache{
		models: make(map[string]*Model),
	}
}

// cacheKey derives the cache key for a checkpoint variant at a precision
func cacheKey(variant string, p Precision) string {
	return variant + "@" + p.String()
}

// Get returns the cached model for the key if resident
func (c *ModelCache) Get(key string) (*Model, bool) {

	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.models[key]
	return m, ok
}

// Put stores a model under the key, replacing and releasing any previous
// entry
func (c *ModelCache) Put(key string, m *Model) {

	c.mu.Lock()
	prev := c.models[key]
	c.models[key] = m
	c.mu.Unlock()

	if prev != nil && prev != m {
		_ = prev.Release()
	}
}

// Evict removes the model for the key from the cache without releasing it.
// Returns the removed model, or nil if the key was not resident
func (c *ModelCache) Evict(key string) *Model {

	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.models[key]
	delete(c.models, key)

	return m
}

// Len returns the number of resident models
func (c *ModelCache) Len() int {

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.models)
}

// Close releases all resident models and empties the cache
func (c *ModelCache) Close() {

	c.close.Do(func() {
		c.mu.Lock()
		models := c.models
		c.models = make(map[string]*Model)
		c.mu.Unlock()

		for _, m := range models {
			_ = m.Release()
		}
	})
}
