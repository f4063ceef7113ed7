package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

const (
	defaultFileMode fs.FileMode = 0o644
	defaultDirMode  fs.FileMode = 0o755
)

// FileStore is a Store backed by a single JSON document. Reads and writes only
// touch memory; Flush serializes the whole table and atomically replaces the
// file.
//
// Invariant: the in-memory table is always a superset of the last successful
// flush. dirty stays set until a flush covers every write made before it.
type FileStore[V any] struct {
	mu    sync.RWMutex
	table map[int64]V
	dirty bool
	gen   uint64 // bumped on every write

	flushMu sync.Mutex // one flush at a time

	path string
	cfg  settings
}

// NewFileStore loads path into memory. A missing or empty file yields an empty
// table; a file that cannot be parsed returns ErrCorrupt.
func NewFileStore[V any](ctx context.Context, path string, opts ...Option) (*FileStore[V], error) {
	cfg := settings{
		fileMode: defaultFileMode,
		dirMode:  defaultDirMode,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("store")
	}

	s := &FileStore[V]{
		table: make(map[int64]V),
		path:  path,
		cfg:   cfg,
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	metrics.UpdateStoreRecords(len(s.table))
	cfg.logger.Info(ctx, "store loaded",
		logger.String("path", path),
		logger.Int("records", len(s.table)),
	)
	return s, nil
}

func (s *FileStore[V]) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var table map[int64]V
	if err := json.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	if table != nil {
		s.table = table
	}
	return nil
}

// Path returns the backing file.
func (s *FileStore[V]) Path() string {
	return s.path
}

// Read implements Store.Read.
func (s *FileStore[V]) Read(_ context.Context, key int64) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.table[key]
	return v, ok
}

// Write implements Store.Write.
func (s *FileStore[V]) Write(_ context.Context, key int64, value V) {
	s.mu.Lock()
	n := s.put(key, value)
	s.mu.Unlock()

	metrics.UpdateStoreRecords(n)
}

// put stores value and returns the table size. Caller holds s.mu.
func (s *FileStore[V]) put(key int64, value V) int {
	s.table[key] = value
	s.dirty = true
	s.gen++
	return len(s.table)
}

// Update implements Store.Update.
func (s *FileStore[V]) Update(_ context.Context, key int64, fn func(current V, exists bool) (V, bool)) (V, bool) {
	s.mu.Lock()
	current, exists := s.table[key]
	next, store := fn(current, exists)
	if !store {
		s.mu.Unlock()
		return current, false
	}
	n := s.put(key, next)
	s.mu.Unlock()

	metrics.UpdateStoreRecords(n)
	return next, true
}

// Entries implements Store.Entries. Both modes return a fresh map so the live
// table is never exposed.
func (s *FileStore[V]) Entries(_ bool) map[int64]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.table)
}

// WriteAll implements Store.WriteAll.
func (s *FileStore[V]) WriteAll(_ context.Context, m map[int64]V) {
	if len(m) == 0 {
		return
	}
	s.mu.Lock()
	n := 0
	for k, v := range m {
		n = s.put(k, v)
	}
	s.mu.Unlock()

	metrics.UpdateStoreRecords(n)
}

// Keys implements Store.Keys.
func (s *FileStore[V]) Keys(_ context.Context) []int64 {
	s.mu.RLock()
	keys := slices.Collect(maps.Keys(s.table))
	s.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Len implements Store.Len.
func (s *FileStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// Dirty reports whether there are writes not yet on disk.
func (s *FileStore[V]) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Flush implements Store.Flush. On failure the table stays dirty so the next
// flush retries.
func (s *FileStore[V]) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrFlush, err)
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.RLock()
	if !s.dirty {
		s.mu.RUnlock()
		return nil
	}
	gen := s.gen
	records := len(s.table)
	data, err := json.MarshalIndent(s.table, "", "  ")
	s.mu.RUnlock()

	start := time.Now()
	if err == nil {
		err = writeFileAtomic(s.path, data, s.cfg.fileMode, s.cfg.dirMode)
	}
	metrics.RecordStoreFlush(float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		metrics.RecordErrorByComponent("store", "flush")
		return fmt.Errorf("%w: %s: %w", ErrFlush, s.path, err)
	}

	s.mu.Lock()
	if s.gen == gen {
		s.dirty = false
	}
	s.mu.Unlock()

	s.cfg.logger.Debug(ctx, "store flushed",
		logger.String("path", s.path),
		logger.Int("records", records),
		logger.Int("bytes", len(data)),
	)
	return nil
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory, so readers never observe a half-written document.
func writeFileAtomic(path string, data []byte, fileMode, dirMode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
