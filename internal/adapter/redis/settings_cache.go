package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
)

const (
	layerMemory   = "memory"
	layerRedis    = "redis"
	layerDatabase = "database"
)

// CacheObserver records lookups per cache layer.
type CacheObserver interface {
	ObserveLookup(layer string, hit bool)
	ObserveInvalidation()
}

// SettingsCache is a read-through cache of user-provided UI settings: an
// in-memory layer, then Redis, then the backing repository. A nil Redis
// client disables the Redis layer.
type SettingsCache struct {
	rdb      goredis.Cmdable
	repo     domain.UserSettingsRepository
	mem      *memoryCache
	clock    clockwork.Clock
	redisTTL time.Duration
	observer CacheObserver
}

var _ domain.UserSettingsRepository = (*SettingsCache)(nil)

func NewSettingsCache(rdb goredis.Cmdable, repo domain.UserSettingsRepository, ttl time.Duration, clock clockwork.Clock, observer CacheObserver) *SettingsCache {
	return &SettingsCache{
		rdb:      rdb,
		repo:     repo,
		mem:      newMemoryCache(ttl, clock),
		clock:    clock,
		redisTTL: 4 * ttl,
		observer: observer,
	}
}

// StartEvictionTimer runs a periodic goroutine that evicts expired in-memory entries.
// Returns a stop function that should be deferred.
func (c *SettingsCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := c.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired settings cache entries", "count", evicted, "remaining", c.mem.size())
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (c *SettingsCache) GetUserProvided(ctx context.Context, version string) (map[string]any, error) {
	if settings, ok := c.mem.get(version); ok {
		c.observe(layerMemory, true)
		return settings, nil
	}
	c.observe(layerMemory, false)

	if c.rdb != nil {
		if settings, ok := c.getCached(ctx, version); ok {
			c.observe(layerRedis, true)
			c.mem.set(version, settings)
			return maps.Clone(settings), nil
		}
		c.observe(layerRedis, false)
	}

	settings, err := c.repo.GetUserProvided(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("user settings lookup for version %s failed: %w", version, err)
	}
	c.observe(layerDatabase, true)

	c.mem.set(version, settings)
	c.writeCache(ctx, version, settings)
	return maps.Clone(settings), nil
}

// Invalidate evicts the settings of version from both cache layers.
func (c *SettingsCache) Invalidate(ctx context.Context, version string) error {
	c.mem.invalidate(version)
	if c.observer != nil {
		c.observer.ObserveInvalidation()
	}

	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, settingsCacheKey(version)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate settings cache: %w", err)
	}
	return nil
}

func (c *SettingsCache) observe(layer string, hit bool) {
	if c.observer != nil {
		c.observer.ObserveLookup(layer, hit)
	}
}

func (c *SettingsCache) writeCache(ctx context.Context, version string, settings map[string]any) {
	if c.rdb == nil {
		return
	}

	encoded, err := json.Marshal(settings)
	if err != nil {
		slog.Warn("Failed to marshal settings for Redis cache", "version", version, "error", err)
		return
	}

	if err := c.rdb.Set(ctx, settingsCacheKey(version), encoded, c.redisTTL).Err(); err != nil {
		slog.Warn("Failed to populate Redis settings cache", "version", version, "error", err)
	}
}

func (c *SettingsCache) getCached(ctx context.Context, version string) (map[string]any, bool) {
	data, err := c.rdb.Get(ctx, settingsCacheKey(version)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("Redis settings cache GET failed", "version", version, "error", err)
		}
		return nil, false
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		slog.Warn("Failed to unmarshal cached settings", "version", version, "error", err)
		return nil, false
	}
	if settings == nil {
		settings = map[string]any{}
	}

	return settings, true
}

func settingsCacheKey(version string) string {
	return "ui_settings:" + version
}

// memoryCache is an in-memory L1 cache with TTL-based expiry.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type memoryCacheEntry struct {
	settings  map[string]any
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration, clock clockwork.Clock) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *memoryCache) get(version string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[version]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return maps.Clone(entry.settings), true
}

func (c *memoryCache) set(version string, settings map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[version] = memoryCacheEntry{
		settings:  maps.Clone(settings),
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

func (c *memoryCache) invalidate(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, version)
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
