package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps buckets in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu      sync.Mutex
	buckets map[string]*memoryKV
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{buckets: make(map[string]*memoryKV)}
}

func (b *MemoryBackend) Bucket(name string) (KV, error) {
	if err := validBucket(name); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	kv, ok := b.buckets[name]
	if !ok {
		kv = &memoryKV{data: make(map[string][]byte)}
		b.buckets[name] = kv
	}
	return kv, nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

type memoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *memoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
