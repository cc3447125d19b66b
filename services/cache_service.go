package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (ce *CacheEntry) IsExpired() bool {
	return time.Now().After(ce.ExpiresAt)
}

// CacheService is a TTL map with oldest-expiry eviction once maxSize is reached.
// Expired entries are dropped by CleanupExpired, which the cache cleanup job runs.
type CacheService struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates a cache with a 1 minute TTL and 1000 entries
func NewCacheService() *CacheService {
	return NewCacheServiceWithConfig(time.Minute, 1000)
}

// NewCacheServiceWithConfig creates a cache service with custom configuration
func NewCacheServiceWithConfig(defaultTTL time.Duration, maxSize int) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CacheService{
		cache:      make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
	}
}

// Get retrieves a value from cache
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || entry.IsExpired() {
		cs.misses.Add(1)
		return nil, false
	}

	cs.hits.Add(1)
	return entry.Data, true
}

// Set stores a value in cache with default TTL
func (cs *CacheService) Set(key string, value interface{}) {
	cs.SetWithTTL(key, value, cs.defaultTTL)
}

// SetWithTTL stores a value in cache with custom TTL
func (cs *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if _, exists := cs.cache[key]; !exists && len(cs.cache) >= cs.maxSize {
		cs.evictOldest()
	}

	cs.cache[key] = &CacheEntry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// evictOldest removes the entry closest to expiry
func (cs *CacheService) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range cs.cache {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(cs.cache, oldestKey)
	}
}

// Clear removes all values from cache and returns how many were dropped
func (cs *CacheService) Clear() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	n := len(cs.cache)
	cs.cache = make(map[string]*CacheEntry)
	return n
}

// Size returns the number of items in cache
func (cs *CacheService) Size() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return len(cs.cache)
}

// CleanupExpired removes expired entries and returns how many were removed
func (cs *CacheService) CleanupExpired() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	removed := 0
	for key, entry := range cs.cache {
		if entry.IsExpired() {
			delete(cs.cache, key)
			removed++
		}
	}
	return removed
}

// CacheStats is the cache section of the metrics endpoint
type CacheStats struct {
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	TTL     string `json:"ttl"`
	Type    string `json:"type"`
}

func (cs *CacheService) Stats() CacheStats {
	return CacheStats{
		Size:    cs.Size(),
		MaxSize: cs.maxSize,
		Hits:    cs.hits.Load(),
		Misses:  cs.misses.Load(),
		TTL:     cs.defaultTTL.String(),
		Type:    "in-memory",
	}
}

// CachedQueryService wraps QueryService with caching capabilities. Keys carry
// today's date so a cached page never outlives the live/history split it was built on.
// Writes made outside this process stay invisible until the entry expires.
type CachedQueryService struct {
	queryService *QueryService
	cache        *CacheService

	// generation advances on every invalidation; a page read under an older
	// generation is returned but not stored
	mu         sync.Mutex
	generation uint64
}

// NewCachedQueryService creates a new cached query service
func NewCachedQueryService(queryService *QueryService, cache *CacheService) *CachedQueryService {
	return &CachedQueryService{
		queryService: queryService,
		cache:        cache,
	}
}

// ListIPOs returns one page, using cache when possible
func (cqs *CachedQueryService) ListIPOs(ctx context.Context, params models.QueryParams) (*models.IPOPage, error) {
	cacheKey := cqs.cacheKey(params)

	if cached, found := cqs.cache.Get(cacheKey); found {
		if page, ok := cached.(*models.IPOPage); ok {
			cqs.queryService.Metrics().IncrementCounter("cache_hit")
			return page, nil
		}
	}

	cqs.mu.Lock()
	generation := cqs.generation
	cqs.mu.Unlock()

	page, err := cqs.queryService.ListIPOs(ctx, params)
	if err != nil {
		return nil, err
	}

	cqs.mu.Lock()
	defer cqs.mu.Unlock()
	if cqs.generation == generation {
		cqs.cache.Set(cacheKey, page)
	}
	return page, nil
}

func (cqs *CachedQueryService) cacheKey(params models.QueryParams) string {
	tab := params.Tab
	if tab == "" {
		tab = models.TabLive
	}
	return fmt.Sprintf("ipos:%s:%s:%d:%d:%s", cqs.queryService.Today(), tab, params.Page, params.Limit, params.Search)
}

// InvalidateIPOCache drops every cached listing. Any page may contain the edited record.
func (cqs *CachedQueryService) InvalidateIPOCache(ipoID string) {
	cqs.mu.Lock()
	cqs.generation++
	removed := cqs.cache.Clear()
	cqs.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"component": "cache",
		"ipo_id":    ipoID,
		"removed":   removed,
	}).Debug("Invalidated IPO listing cache")
}

// GetCacheStats returns cache statistics
func (cqs *CachedQueryService) GetCacheStats() CacheStats {
	return cqs.cache.Stats()
}

// NewListerFromConfig wires the query service behind a cache when caching is enabled
func NewListerFromConfig(queryService *QueryService, updateService *UpdateService, cache *CacheService, config shared.CacheConfig) IPOLister {
	if !config.Enabled || cache == nil {
		return queryService
	}
	cached := NewCachedQueryService(queryService, cache)
	updateService.OnUpdate(cached.InvalidateIPOCache)
	return cached
}
