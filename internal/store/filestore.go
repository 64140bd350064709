package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/mallet/internal/sarif"
)

var storeTracer = otel.Tracer("github.com/chris-regnier/mallet/internal/store")

const (
	sarifFile   = "sarif.json"
	verdictFile = "verdict.json"
)

// FileStore keeps each run in its own directory under dir, named so that
// lexical order is chronological order.
type FileStore struct {
	dir string
	now func() time.Time
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

func (s *FileStore) generateID() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	ts := s.now().UTC().Format("2006-01-02T15-04-05.000Z")
	return fmt.Sprintf("%s-%s", ts, hex.EncodeToString(b))
}

// RunDir returns the directory holding the run with the given ID.
func (s *FileStore) RunDir(id string) string {
	return filepath.Join(s.dir, id)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *FileStore) WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error) {
	_, span := storeTracer.Start(ctx, "write sarif")
	defer span.End()

	id := s.generateID()
	dir := s.RunDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fail(span, fmt.Errorf("creating run directory: %w", err))
	}
	if err := writeJSON(filepath.Join(dir, sarifFile), doc); err != nil {
		return "", fail(span, err)
	}

	resultCount := 0
	for _, run := range doc.Runs {
		resultCount += len(run.Results)
	}
	span.SetAttributes(
		attribute.String("mallet.store.id", id),
		attribute.Int("mallet.store.result_count", resultCount),
	)
	return id, nil
}

func (s *FileStore) WriteVerdict(ctx context.Context, sarifID string, verdict *Verdict) error {
	_, span := storeTracer.Start(ctx, "write verdict")
	defer span.End()

	dir := s.RunDir(sarifID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(span, fmt.Errorf("%w: %s", ErrNotFound, sarifID))
		}
		return fail(span, err)
	}
	if err := writeJSON(filepath.Join(dir, verdictFile), verdict); err != nil {
		return fail(span, err)
	}

	span.SetAttributes(
		attribute.String("mallet.store.id", sarifID),
		attribute.String("mallet.decision", verdict.Decision),
	)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path, id string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s of run %s: %w", filepath.Base(path), id, err)
	}
	return nil
}

func (s *FileStore) ReadSARIF(ctx context.Context, id string) (*sarif.Log, error) {
	var log sarif.Log
	if err := readJSON(filepath.Join(s.RunDir(id), sarifFile), id, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *FileStore) ReadVerdict(ctx context.Context, sarifID string) (*Verdict, error) {
	var v Verdict
	if err := readJSON(filepath.Join(s.RunDir(sarifID), verdictFile), sarifID, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Latest returns the ID of the newest run.
func (s *FileStore) Latest(ctx context.Context) (string, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNotFound
	}
	return ids[0], nil
}

// Prune deletes all but the newest keep runs and returns how many it
// removed.
func (s *FileStore) Prune(ctx context.Context, keep int) (int, error) {
	_, span := storeTracer.Start(ctx, "prune")
	defer span.End()

	ids, err := s.List(ctx)
	if err != nil {
		return 0, fail(span, err)
	}
	if keep < 0 {
		keep = 0
	}
	removed := 0
	for _, id := range ids[min(keep, len(ids)):] {
		if err := os.RemoveAll(s.RunDir(id)); err != nil {
			return removed, fail(span, fmt.Errorf("removing run %s: %w", id, err))
		}
		removed++
	}
	span.SetAttributes(attribute.Int("mallet.store.pruned", removed))
	return removed, nil
}
