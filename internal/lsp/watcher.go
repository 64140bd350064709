package lsp

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// WatcherConfig holds configuration for the debounced watcher. Zero
// fields in an update leave the current value alone.
type WatcherConfig struct {
	DebounceDuration time.Duration
	ParallelFiles    int
	WatchPatterns    []string
	IgnorePatterns   []string
}

// DebouncedWatcher batches document changes and hands them to onTrigger
// once no change has arrived for the debounce duration.
type DebouncedWatcher struct {
	config    WatcherConfig
	onTrigger func(uris []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

// NewDebouncedWatcherWithConfig creates a watcher. A zero debounce or
// parallelism falls back to the server defaults.
func NewDebouncedWatcherWithConfig(config WatcherConfig, onTrigger func(uris []string)) *DebouncedWatcher {
	if onTrigger == nil {
		panic("onTrigger callback cannot be nil")
	}
	defaults := DefaultServerConfig()
	if config.DebounceDuration <= 0 {
		config.DebounceDuration = defaults.DebounceDuration
	}
	if config.ParallelFiles <= 0 {
		config.ParallelFiles = defaults.ParallelFiles
	}
	return &DebouncedWatcher{
		config:    config,
		onTrigger: onTrigger,
		pending:   make(map[string]struct{}),
	}
}

// UpdateConfig merges the non-zero fields of update into the configuration
func (w *DebouncedWatcher) UpdateConfig(update WatcherConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if update.DebounceDuration > 0 {
		w.config.DebounceDuration = update.DebounceDuration
	}
	if update.ParallelFiles > 0 {
		w.config.ParallelFiles = update.ParallelFiles
	}
	if len(update.WatchPatterns) > 0 {
		w.config.WatchPatterns = update.WatchPatterns
	}
	if len(update.IgnorePatterns) > 0 {
		w.config.IgnorePatterns = update.IgnorePatterns
	}
}

// Config returns the current configuration
func (w *DebouncedWatcher) Config() WatcherConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

// FileChanged queues uri and restarts the quiet period
func (w *DebouncedWatcher) FileChanged(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[uri] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.DebounceDuration, w.flush)
}

// flush hands the pending documents to onTrigger, at most ParallelFiles
// at a time.
func (w *DebouncedWatcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	uris := make([]string, 0, len(w.pending))
	for uri := range w.pending {
		uris = append(uris, uri)
	}
	clear(w.pending)
	parallel := w.config.ParallelFiles
	w.mu.Unlock()

	slices.Sort(uris)
	if parallel <= 1 || len(uris) == 1 {
		w.onTrigger(uris)
		return
	}

	var g errgroup.Group
	g.SetLimit(parallel)
	for _, uri := range uris {
		g.Go(func() error {
			w.onTrigger([]string{uri})
			return nil
		})
	}
	_ = g.Wait()
}

// Stop drops pending changes and ignores later ones
func (w *DebouncedWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	clear(w.pending)
}

// ShouldWatch checks uri against the current patterns
func (w *DebouncedWatcher) ShouldWatch(uri string) bool {
	w.mu.Lock()
	config := w.config
	w.mu.Unlock()

	return ShouldWatchPath(uri, config.WatchPatterns, config.IgnorePatterns)
}

// ShouldWatchPath reports whether path matches no ignore pattern and,
// when watch patterns are given, at least one of them.
func ShouldWatchPath(path string, watchPatterns, ignorePatterns []string) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "file://")

	for _, pattern := range ignorePatterns {
		if matchGlobPattern(path, pattern) {
			return false
		}
	}
	if len(watchPatterns) == 0 {
		return true
	}
	for _, pattern := range watchPatterns {
		if matchGlobPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchGlobPattern matches a slash-separated path against a glob. "**/d/**"
// matches a directory d anywhere, "**/*.ext" and "*.ext" match by suffix,
// and other patterns match the base name.
func matchGlobPattern(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if dir, ok := strings.CutPrefix(pattern, "**/"); ok {
		if dir, ok := strings.CutSuffix(dir, "/**"); ok {
			return strings.Contains("/"+path+"/", "/"+dir+"/")
		}
	}

	if prefix, suffix, ok := strings.Cut(pattern, "**"); ok {
		prefix = strings.TrimSuffix(prefix, "/")
		suffix = strings.TrimPrefix(suffix, "/")
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			return false
		}
		if ext, ok := strings.CutPrefix(suffix, "*"); ok {
			return strings.HasSuffix(path, ext)
		}
		return suffix == "" || strings.Contains(path, suffix)
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && !strings.ContainsAny(ext, "/*?[") {
		return strings.HasSuffix(path, ext)
	}

	matched, _ := filepath.Match(pattern, filepath.Base(path))
	return matched
}
