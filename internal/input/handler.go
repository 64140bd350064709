// Package input turns command-line paths into the source files to lint.
package input

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/chris-regnier/mallet/internal/parse"
)

// Artifact is one source file ready to be parsed.
type Artifact struct {
	Path     string
	Content  string
	Language string
}

// Handler collects artifacts, filtering by include and exclude globs.
type Handler struct {
	included []string
	excluded []string
}

// NewHandler creates a Handler. A pattern matches a path when it matches
// the whole slash-separated path, any single component of it, or a
// directory prefix of it.
func NewHandler(included, excluded []string) *Handler {
	return &Handler{included: included, excluded: excluded}
}

func match(pattern, path string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")
	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	if strings.HasPrefix(path, pattern+"/") {
		return true
	}
	for _, part := range strings.Split(path, "/") {
		if ok, _ := filepath.Match(pattern, part); ok {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if match(p, path) {
			return true
		}
	}
	return false
}

// Excluded reports whether path is filtered out by the exclude globs.
func (h *Handler) Excluded(path string) bool {
	return matchAny(h.excluded, path)
}

// Included reports whether path passes the include globs; no include
// globs admits everything.
func (h *Handler) Included(path string) bool {
	return len(h.included) == 0 || matchAny(h.included, path)
}

// Collect expands files and directories into artifacts. Files named
// explicitly are linted when their language is known, whatever the
// globs say; directories are walked and filtered. Each file appears once.
func (h *Handler) Collect(paths []string) ([]Artifact, error) {
	seen := make(map[string]bool)
	var artifacts []Artifact
	add := func(as []Artifact) {
		for _, a := range as {
			if !seen[a.Path] {
				seen[a.Path] = true
				artifacts = append(artifacts, a)
			}
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			as, err := h.ReadDirectory(p)
			if err != nil {
				return nil, err
			}
			add(as)
			continue
		}
		as, err := h.ReadFiles([]string{p})
		if err != nil {
			return nil, err
		}
		add(as)
	}
	return artifacts, nil
}

// ReadFiles reads the given files, skipping unknown languages and
// invalid UTF-8.
func (h *Handler) ReadFiles(paths []string) ([]Artifact, error) {
	var artifacts []Artifact
	for _, p := range paths {
		lang, ok := parse.Detect(p)
		if !ok {
			slog.Debug("skipping file with unsupported language", "path", p)
			continue
		}
		a, ok, err := read(p, lang.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

// ReadDirectory walks dir in lexical order. Hidden and excluded
// directories are not descended into.
func (h *Handler) ReadDirectory(dir string) ([]Artifact, error) {
	var artifacts []Artifact
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || h.Excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || h.Excluded(path) || !h.Included(path) {
			return nil
		}
		lang, ok := parse.Detect(path)
		if !ok {
			return nil
		}
		a, ok, err := read(path, lang.Name)
		if err != nil {
			return err
		}
		if ok {
			artifacts = append(artifacts, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return artifacts, nil
}

func read(path, language string) (Artifact, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, false, err
	}
	if !utf8.Valid(data) {
		slog.Warn("skipping file with invalid UTF-8", "path", path)
		return Artifact{}, false, nil
	}
	return Artifact{Path: path, Content: string(data), Language: language}, true, nil
}

// DiffPaths returns the files a unified git diff adds or modifies, in
// the order they appear. Deleted files are left out.
func DiffPaths(diff string) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "+++ ") {
			continue
		}
		p := strings.TrimSpace(strings.TrimPrefix(line, "+++ "))
		if p == "/dev/null" {
			continue
		}
		p = strings.TrimPrefix(p, "b/")
		if i := strings.IndexByte(p, '\t'); i >= 0 {
			p = p[:i]
		}
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths
}

// ExistingPaths drops the paths that no longer exist on disk.
func ExistingPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		out = append(out, p)
	}
	return out
}
