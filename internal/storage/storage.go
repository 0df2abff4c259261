// Package storage provides the key-value persistence layer behind the
// conversation stores. Each store owns one bucket; keys are conversation IDs
// and values are that conversation's JSON document.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Bucket names used by the conversation stores.
const (
	BucketNotes        = "research_notes"
	BucketReadingLists = "reading_lists"
	BucketBibliography = "bibliography"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage backend closed")

// KV is a narrow key-value view of one bucket.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys in the bucket in ascending order.
	Keys(ctx context.Context) ([]string, error)
}

// Backend hands out buckets and owns the underlying resources.
type Backend interface {
	Bucket(name string) (KV, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // json, sqlite, badger, postgres, memory
	Dir         string // Data directory for file-based backends
	PostgresURL string
}

// Open creates the backend described by opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendJSON:
		return NewJSONBackend(opts.Dir)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(opts.Dir, "litbot.db"))
	case BackendBadger:
		return OpenBadger(BadgerConfig{Path: filepath.Join(opts.Dir, "badger"), SyncWrites: true})
	case BackendPostgres:
		return OpenPostgres(ctx, opts.PostgresURL)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}

// validBucket guards against names that would escape the data directory
// or collide with the badger key separator.
func validBucket(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return fmt.Errorf("invalid bucket name %q", name)
	}
	return nil
}
