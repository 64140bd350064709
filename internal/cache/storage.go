package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const entrySuffix = ".mp"

// Storage provides an abstraction for storing and retrieving cache data
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalStorage implements Storage using the local filesystem. Writes go
// to a temporary file that is renamed into place, so readers never see a
// partial entry.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

// DefaultDir is $XDG_CACHE_HOME/mallet, falling back to ~/.cache/mallet.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "mallet"), nil
}

// keyPath converts a cache key to a filesystem path, fanning out on the
// first two characters of the key.
func (s *LocalStorage) keyPath(key string) string {
	if len(key) > 2 {
		return filepath.Join(s.dir, key[:2], key+entrySuffix)
	}
	return filepath.Join(s.dir, key+entrySuffix)
}

// Get retrieves data for the given key
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// Put stores data for the given key
func (s *LocalStorage) Put(ctx context.Context, key string, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := s.keyPath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Delete removes data for the given key
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.keyPath(key))
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil // Not an error if already deleted
	}
	return err
}

// List returns all keys matching the given prefix
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), entrySuffix) {
			return nil
		}
		key := strings.TrimSuffix(d.Name(), entrySuffix)
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})

	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil, nil // Empty list if directory doesn't exist
	}
	return keys, err
}

// Dir returns the storage directory path
func (s *LocalStorage) Dir() string {
	return s.dir
}
