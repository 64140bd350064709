package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chris-regnier/mallet/internal/lint"
)

func testKey() CacheKey {
	return CacheKey{FileHash: "abc123", FilePath: "main.go", ConfigHash: "cfg", Version: "dev"}
}

func TestDiskCacheGetMiss(t *testing.T) {
	cache := NewLocalCache(t.TempDir())

	_, err := cache.Get(context.Background(), testKey())
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestDiskCachePutGet(t *testing.T) {
	cache := NewLocalCache(t.TempDir())
	key := testKey()
	entry := &CacheEntry{
		Key: key,
		Violations: []lint.Violation{
			{Rule: "todo", Position: 12, Reason: "TODO found", Severity: lint.SeverityWarning},
		},
		Suppressed: []lint.Violation{
			{Rule: "closing_brace", Position: 40},
		},
	}

	ctx := context.Background()
	if err := cache.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if entry.Timestamp == 0 {
		t.Error("Put should stamp the entry")
	}

	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(got.Violations))
	}
	if got.Violations[0] != entry.Violations[0] {
		t.Errorf("violation = %+v, want %+v", got.Violations[0], entry.Violations[0])
	}
	if len(got.Suppressed) != 1 || got.Suppressed[0].Rule != "closing_brace" {
		t.Errorf("suppressed = %+v", got.Suppressed)
	}
}

func TestDiskCacheKeyMismatchIsMiss(t *testing.T) {
	storage := NewLocalStorage(t.TempDir())
	cache := NewDiskCache(storage)
	ctx := context.Background()
	key := testKey()

	other := key
	other.FilePath = "other.go"
	data, err := msgpack.Marshal(&diskRecord{Schema: diskSchema, Entry: &CacheEntry{Key: other}})
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.Put(ctx, key.Hash(), data); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestDiskCacheSchemaMismatchIsMiss(t *testing.T) {
	storage := NewLocalStorage(t.TempDir())
	cache := NewDiskCache(storage)
	ctx := context.Background()
	key := testKey()

	data, err := msgpack.Marshal(&diskRecord{Schema: diskSchema + 1, Entry: &CacheEntry{Key: key}})
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.Put(ctx, key.Hash(), data); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestDiskCacheCorruptEntry(t *testing.T) {
	storage := NewLocalStorage(t.TempDir())
	cache := NewDiskCache(storage)
	ctx := context.Background()
	key := testKey()

	if err := os.MkdirAll(storage.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := storage.Put(ctx, key.Hash(), []byte{0xc1}); err != nil {
		t.Fatal(err)
	}

	_, err := cache.Get(ctx, key)
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected a decode error, got %v", err)
	}
}

func TestDiskCacheDeleteAndClear(t *testing.T) {
	cache := NewLocalCache(t.TempDir())
	ctx := context.Background()

	keys := []CacheKey{testKey(), {FileHash: "def", FilePath: "b.go"}, {FileHash: "ghi", FilePath: "c.go"}}
	for _, k := range keys {
		if err := cache.Put(ctx, &CacheEntry{Key: k}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if err := cache.Delete(ctx, keys[0]); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := cache.Get(ctx, keys[0]); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}

	n, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear removed %d entries, want 2", n)
	}
	for _, k := range keys[1:] {
		if _, err := cache.Get(ctx, k); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss after clear, got %v", err)
		}
	}
}
