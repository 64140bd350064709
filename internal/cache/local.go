package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// diskSchema is bumped whenever CacheEntry changes shape.
const diskSchema uint16 = 1

var cacheTracer = otel.Tracer("github.com/chris-regnier/mallet/internal/cache")

var _ CacheManager = (*DiskCache)(nil)

// DiskCache is a CacheManager that stores msgpack-encoded entries in a
// Storage.
type DiskCache struct {
	storage Storage
}

type diskRecord struct {
	Schema uint16      `msgpack:"schema"`
	Entry  *CacheEntry `msgpack:"entry"`
}

func NewDiskCache(storage Storage) *DiskCache {
	return &DiskCache{storage: storage}
}

// NewLocalCache creates a DiskCache under dir.
func NewLocalCache(dir string) *DiskCache {
	return NewDiskCache(NewLocalStorage(dir))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *DiskCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	ctx, span := cacheTracer.Start(ctx, "cache lookup")
	defer span.End()

	hash := key.Hash()
	span.SetAttributes(attribute.String("mallet.cache.key", hash))

	data, err := c.storage.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			span.SetAttributes(attribute.Bool("mallet.cache.hit", false))
			return nil, ErrCacheMiss
		}
		return nil, fail(span, err)
	}

	var rec diskRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fail(span, fmt.Errorf("decoding cache entry %s: %w", hash, err))
	}
	// entries written by another schema are treated as absent
	if rec.Schema != diskSchema || rec.Entry == nil || rec.Entry.Key != key {
		span.SetAttributes(attribute.Bool("mallet.cache.hit", false))
		return nil, ErrCacheMiss
	}

	span.SetAttributes(attribute.Bool("mallet.cache.hit", true))
	return rec.Entry, nil
}

func (c *DiskCache) Put(ctx context.Context, entry *CacheEntry) error {
	ctx, span := cacheTracer.Start(ctx, "cache store")
	defer span.End()

	hash := entry.Key.Hash()
	span.SetAttributes(attribute.String("mallet.cache.key", hash))

	entry.Timestamp = time.Now().Unix()
	data, err := msgpack.Marshal(&diskRecord{Schema: diskSchema, Entry: entry})
	if err != nil {
		return fail(span, err)
	}
	if err := c.storage.Put(ctx, hash, data); err != nil {
		return fail(span, err)
	}
	return nil
}

func (c *DiskCache) Delete(ctx context.Context, key CacheKey) error {
	return c.storage.Delete(ctx, key.Hash())
}

// Clear removes every entry and returns how many were removed.
func (c *DiskCache) Clear(ctx context.Context) (int, error) {
	keys, err := c.storage.List(ctx, "")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		if err := c.storage.Delete(ctx, k); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
