package cache

import (
	"context"
	"errors"
	"log/slog"
)

// MultiTierConfig configures the multi-tier cache behavior
type MultiTierConfig struct {
	// WriteThrough controls whether entries are also written to the far tier
	WriteThrough bool

	// ReadThrough controls whether a near miss consults the far tier
	ReadThrough bool

	// WarmNear controls whether a far hit is copied into the near tier
	WarmNear bool
}

// DefaultMultiTierConfig returns the default multi-tier cache configuration
func DefaultMultiTierConfig() MultiTierConfig {
	return MultiTierConfig{
		WriteThrough: true,
		ReadThrough:  true,
		WarmNear:     true,
	}
}

// MultiTierCache implements CacheManager over a fast near tier, usually
// memory, and an optional far tier, usually disk.
type MultiTierCache struct {
	near   CacheManager
	far    CacheManager // may be nil
	config MultiTierConfig
}

// NewMultiTierCache creates a new multi-tier cache.
// If far is nil, the cache operates in near-only mode.
func NewMultiTierCache(near, far CacheManager, config MultiTierConfig) *MultiTierCache {
	return &MultiTierCache{
		near:   near,
		far:    far,
		config: config,
	}
}

// Get checks the near tier, then the far tier
func (c *MultiTierCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	entry, err := c.near.Get(ctx, key)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("near cache lookup failed", "path", key.FilePath, "err", err)
	}

	if !c.config.ReadThrough || c.far == nil {
		return nil, ErrCacheMiss
	}

	entry, err = c.far.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if c.config.WarmNear {
		if putErr := c.near.Put(ctx, entry); putErr != nil {
			slog.Warn("failed to warm near cache", "path", key.FilePath, "err", putErr)
		}
	}

	return entry, nil
}

// Put stores a cache entry in the near and optionally the far tier
func (c *MultiTierCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := c.near.Put(ctx, entry); err != nil {
		return err
	}

	if c.config.WriteThrough && c.far != nil {
		if err := c.far.Put(ctx, entry); err != nil {
			// the near write succeeded
			slog.Warn("failed to write far cache", "path", entry.Key.FilePath, "err", err)
		}
	}

	return nil
}

// Delete removes a cache entry from both tiers
func (c *MultiTierCache) Delete(ctx context.Context, key CacheKey) error {
	if err := c.near.Delete(ctx, key); err != nil {
		return err
	}

	if c.far != nil {
		if err := c.far.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete from far cache", "path", key.FilePath, "err", err)
		}
	}

	return nil
}

// Near returns the near cache manager
func (c *MultiTierCache) Near() CacheManager {
	return c.near
}

// Far returns the far cache manager (may be nil)
func (c *MultiTierCache) Far() CacheManager {
	return c.far
}

// HasFar reports whether a far tier is configured
func (c *MultiTierCache) HasFar() bool {
	return c.far != nil
}

// Config returns the current configuration
func (c *MultiTierCache) Config() MultiTierConfig {
	return c.config
}

// Clear empties every tier that supports it and returns the number of
// entries removed from the far tier, or the near tier when there is none.
func (c *MultiTierCache) Clear(ctx context.Context) (int, error) {
	var n int
	if cl, ok := c.near.(Clearer); ok {
		removed, err := cl.Clear(ctx)
		if err != nil {
			return 0, err
		}
		n = removed
	}
	if cl, ok := c.far.(Clearer); ok {
		removed, err := cl.Clear(ctx)
		if err != nil {
			return 0, err
		}
		n = removed
	}
	return n, nil
}
