package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrUnchanged may be returned from an Update callback to report success
// without writing anything.
var ErrUnchanged = errors.New("unchanged")

// Partition holds one JSON document of type T per conversation, backed by a
// KV bucket. Documents load lazily on first access and are cached encoded,
// so every Update works on a private copy: a failed callback or a failed
// write leaves the cached state untouched.
type Partition[T any] struct {
	kv    KV
	locks KeyedMutex

	mu    sync.Mutex
	cache map[string][]byte // nil entry: known absent
}

// NewPartition wraps kv.
func NewPartition[T any](kv KV) *Partition[T] {
	return &Partition[T]{kv: kv, cache: make(map[string][]byte)}
}

// View returns a copy of the conversation's document, or the zero value
// when none exists yet.
func (p *Partition[T]) View(ctx context.Context, conv string) (T, error) {
	unlock := p.locks.Lock(conv)
	defer unlock()

	var doc T
	raw, err := p.load(ctx, conv)
	if err != nil {
		return doc, err
	}
	if raw == nil {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decoding %s: %w", conv, err)
	}
	return doc, nil
}

// Update applies fn to a copy of the conversation's document and persists
// the result. Updates on the same conversation are serialized; different
// conversations proceed in parallel.
func (p *Partition[T]) Update(ctx context.Context, conv string, fn func(doc *T) error) error {
	unlock := p.locks.Lock(conv)
	defer unlock()

	raw, err := p.load(ctx, conv)
	if err != nil {
		return err
	}
	var doc T
	if raw != nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decoding %s: %w", conv, err)
		}
	}

	if err := fn(&doc); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}

	next, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", conv, err)
	}
	if err := p.kv.Put(ctx, conv, next); err != nil {
		return fmt.Errorf("saving %s: %w", conv, err)
	}

	p.mu.Lock()
	p.cache[conv] = next
	p.mu.Unlock()
	return nil
}

// load returns the cached document bytes, reading through to the KV on a
// miss. Callers hold the conversation lock.
func (p *Partition[T]) load(ctx context.Context, conv string) ([]byte, error) {
	p.mu.Lock()
	raw, ok := p.cache[conv]
	p.mu.Unlock()
	if ok {
		return raw, nil
	}

	raw, found, err := p.kv.Get(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", conv, err)
	}
	if !found {
		raw = nil
	}

	p.mu.Lock()
	p.cache[conv] = raw
	p.mu.Unlock()
	return raw, nil
}
