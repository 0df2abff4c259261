package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// JSONBackend keeps each bucket as one JSON document, <dir>/<bucket>.json,
// mapping key -> value. Every Put or Delete rewrites the whole document
// atomically (temp file + rename).
type JSONBackend struct {
	dir string

	mu      sync.Mutex
	buckets map[string]*JSONFile
}

// NewJSONBackend creates a JSON backend rooted at dir, creating it if needed.
func NewJSONBackend(dir string) (*JSONBackend, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &JSONBackend{dir: dir, buckets: make(map[string]*JSONFile)}, nil
}

// Bucket returns the JSON file for name, loading it on first use.
func (b *JSONBackend) Bucket(name string) (KV, error) {
	if err := validBucket(name); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if f, ok := b.buckets[name]; ok {
		return f, nil
	}
	f, err := OpenJSONFile(filepath.Join(b.dir, name+".json"))
	if err != nil {
		return nil, err
	}
	b.buckets[name] = f
	return f, nil
}

// Close is a no-op; every write is already on disk.
func (b *JSONBackend) Close() error {
	return nil
}

// JSONFile is a KV persisted as a single JSON object.
type JSONFile struct {
	path string

	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// OpenJSONFile loads path. A missing file is an empty document.
func OpenJSONFile(path string) (*JSONFile, error) {
	f := &JSONFile{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil // No document yet
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Path returns the document path.
func (f *JSONFile) Path() string {
	return f.path
}

func (f *JSONFile) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (f *JSONFile) Put(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.snapshot()
	v := make(json.RawMessage, len(value))
	copy(v, value)
	next[key] = v
	if err := writeJSONAtomic(f.path, next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *JSONFile) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[key]; !ok {
		return nil
	}
	next := f.snapshot()
	delete(next, key)
	if err := writeJSONAtomic(f.path, next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *JSONFile) Keys(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// snapshot returns a shallow copy of the document. Callers hold f.mu.
func (f *JSONFile) snapshot() map[string]json.RawMessage {
	next := make(map[string]json.RawMessage, len(f.data)+1)
	for k, v := range f.data {
		next[k] = v
	}
	return next
}

// writeJSONAtomic writes v as indented JSON to path via a temp file in the
// same directory, so a crash never leaves a partially written document.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
