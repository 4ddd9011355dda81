package cache

import (
	"sync"

	"github.com/dfarena/indexer/pkg/core"
)

// ConfigCache keeps arena configs after their first load to avoid repeated
// repository reads. Configs never change once written, so entries are never
// invalidated.
type ConfigCache struct {
	m       sync.RWMutex
	configs map[string]*core.ArenaConfig
}

func NewConfigCache() *ConfigCache {
	return &ConfigCache{
		configs: make(map[string]*core.ArenaConfig),
	}
}

func (c *ConfigCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.configs = make(map[string]*core.ArenaConfig)
}

// Get returns a copy of the cached config for an arena.
func (c *ConfigCache) Get(arena string) (*core.ArenaConfig, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	if cfg, ok := c.configs[arena]; ok {
		return cfg.Clone(), true
	}
	return nil, false
}

func (c *ConfigCache) Add(cfg *core.ArenaConfig) {
	c.m.Lock()
	defer c.m.Unlock()
	c.configs[cfg.Arena] = cfg.Clone()
}

func (c *ConfigCache) Len() int {
	c.m.RLock()
	defer c.m.RUnlock()
	return len(c.configs)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
