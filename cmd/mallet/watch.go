package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chris-regnier/mallet/internal/input"
	"github.com/chris-regnier/mallet/internal/parse"
)

// watch runs fn once, then again after every burst of changes to a
// lintable file under paths, until ctx is cancelled. Runs never overlap.
func watch(ctx context.Context, paths []string, debounce time.Duration, h *input.Handler, fn func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := addWatchRecursive(watcher, p, h); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
	}

	fn(ctx)

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addWatchRecursive(watcher, ev.Name, h); err != nil {
						slog.Warn("watch failed", "path", ev.Name, "err", err)
					}
					continue
				}
			}
			if !relevant(ev, h) {
				continue
			}
			slog.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			fn(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		}
	}
}

// relevant reports whether ev touches a file mallet would lint.
func relevant(ev fsnotify.Event, h *input.Handler) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	if _, ok := parse.Detect(ev.Name); !ok {
		return false
	}
	return h.Included(ev.Name) && !h.Excluded(ev.Name)
}

// addWatchRecursive watches root and every directory below it that is
// neither hidden nor excluded. A file root watches its directory.
func addWatchRecursive(w *fsnotify.Watcher, root string, h *input.Handler) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || h.Excluded(path)) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
