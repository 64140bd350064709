// Package cache stores lint results keyed by file content and
// configuration, in memory and on disk.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/chris-regnier/mallet/internal/lint"
)

// Entry is one value in the in-memory cache
type Entry[V any] struct {
	Key       string
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
	HitCount  int64
}

// IsExpired returns true if the entry has expired
func (e *Entry[V]) IsExpired() bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.ExpiresAt)
}

// Cache provides a thread-safe in-memory cache with TTL support
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[V]
	maxSize int
	ttl     time.Duration

	// Stats
	hits      int64
	misses    int64
	evictions int64
}

type settings struct {
	maxSize int
	ttl     time.Duration
}

// Option configures a Cache
type Option func(*settings)

// WithMaxSize sets the maximum number of entries
func WithMaxSize(n int) Option {
	return func(s *settings) {
		s.maxSize = n
	}
}

// WithTTL sets the default time-to-live for entries; zero means entries
// never expire.
func WithTTL(d time.Duration) Option {
	return func(s *settings) {
		s.ttl = d
	}
}

// New creates a new cache with the given options
func New[V any](opts ...Option) *Cache[V] {
	s := settings{maxSize: 1000, ttl: time.Hour}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[V]{
		entries: make(map[string]*Entry[V]),
		maxSize: s.maxSize,
		ttl:     s.ttl,
	}
}

// Get retrieves a value from the cache.
// Returns the value and true if found and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if entry.IsExpired() {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	entry.HitCount++
	c.hits++
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	c.entries[key] = &Entry[V]{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
}

// Delete removes an entry from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry[V])
}

// Size returns the current number of entries
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate,
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Evictions int64   `json:"evictions"`
}

// evictOldest removes the oldest entry (by creation time)
// Must be called with lock held
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Cleanup removes all expired entries
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, entry := range c.entries {
		if entry.IsExpired() {
			delete(c.entries, key)
			count++
		}
	}
	return count
}

// GenerateKey creates a cache key from multiple components
func GenerateKey(components ...string) string {
	h := sha256.New()
	for i, comp := range components {
		if i > 0 {
			h.Write([]byte{0}) // separator
		}
		h.Write([]byte(comp))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash is the digest of a file's bytes.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

var ErrCacheMiss = errors.New("cache miss")

// CacheKey identifies the lint result of one file under one configuration
type CacheKey struct {
	FileHash   string `msgpack:"file_hash" json:"file_hash"`
	FilePath   string `msgpack:"file_path" json:"file_path"`
	ConfigHash string `msgpack:"config_hash" json:"config_hash"`
	Version    string `msgpack:"version" json:"version"`
}

// Hash computes deterministic cache key
func (k CacheKey) Hash() string {
	return GenerateKey(k.FileHash, k.FilePath, k.ConfigHash, k.Version)
}

// CacheEntry is the cached lint result of one file
type CacheEntry struct {
	Key        CacheKey         `msgpack:"key"`
	Violations []lint.Violation `msgpack:"violations"`
	// Suppressed are the violations inside disabled regions.
	Suppressed []lint.Violation `msgpack:"suppressed"`
	Timestamp  int64            `msgpack:"timestamp"`
}

// CacheManager stores lint results
type CacheManager interface {
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)
	Put(ctx context.Context, entry *CacheEntry) error
	Delete(ctx context.Context, key CacheKey) error
}

// MemoryCache adapts a Cache to CacheManager
type MemoryCache struct {
	c *Cache[*CacheEntry]
}

var _ CacheManager = (*MemoryCache)(nil)

// NewMemoryCache creates an in-memory CacheManager
func NewMemoryCache(opts ...Option) *MemoryCache {
	return &MemoryCache{c: New[*CacheEntry](opts...)}
}

func (m *MemoryCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := m.c.Get(key.Hash())
	if !ok {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

func (m *MemoryCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.c.Set(entry.Key.Hash(), entry)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key CacheKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.c.Delete(key.Hash())
	return nil
}

// Stats returns statistics of the underlying cache
func (m *MemoryCache) Stats() CacheStats {
	return m.c.Stats()
}

// Clear removes every entry and returns how many were removed.
func (m *MemoryCache) Clear(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := m.c.Size()
	m.c.Clear()
	return n, nil
}

// Clearer is a cache that can drop all of its entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
