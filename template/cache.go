package template

import (
	"sync"
	"time"

	"caseguard/models"
)

// Loader fetches an active template by name from backing storage.
type Loader interface {
	GetTemplateByName(name string) (*models.NotificationTemplate, error)
}

// Cache is a read-through template cache with a caller-injected TTL and an
// explicit invalidation hook. Whoever saves a template is responsible for
// calling Invalidate; there is no ambient process-wide state.
type Cache struct {
	loader Loader
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	tpl       *models.NotificationTemplate
	expiresAt time.Time
}

// NewCache creates a read-through cache over loader. A zero or negative
// ttl disables caching and every Get hits the loader.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		loader:  loader,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the named active template, from cache when fresh.
func (c *Cache) Get(name string) (*models.NotificationTemplate, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		entry, ok := c.entries[name]
		c.mu.RUnlock()
		if ok && time.Now().Before(entry.expiresAt) {
			return entry.tpl, nil
		}
	}

	tpl, err := c.loader.GetTemplateByName(name)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[name] = cacheEntry{tpl: tpl, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
	}
	return tpl, nil
}

// Invalidate drops the named template from the cache. Fired by the owner
// of template writes after a save or deactivation.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}
