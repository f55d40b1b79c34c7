package storage

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"

	"privacy-node/internal/config"
)

// ErrNotFound is returned when no value exists for a key.
var ErrNotFound = errors.New("storage: not found")

// Store is the key-value contract consumed by the relay: content-addressed
// Put, plus Update for records whose key is pinned to creation-time content
// (privacy groups, query index entries).
type Store interface {
	// Put persists value under the digest of its bytes and returns the key.
	Put(value []byte) (string, error)
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Update overwrites (or creates) the value at an explicit key.
	Update(key string, value []byte) error
	// Delete removes the value at key and returns it, or ErrNotFound.
	Delete(key string) ([]byte, error)
	Close() error
}

// GenerateDigest computes the storage key for a value without touching the
// store. Pure; used to recompute the stable key of a record whose content has
// since changed.
func GenerateDigest(value []byte) string {
	sum := sha3.Sum512(value)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// New opens the storage backend selected by the configuration.
func New(cfg config.DBConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return NewBadgerStore(cfg.Path)
	case "postgres":
		return NewSQLStore(cfg)
	default:
		return nil, fmt.Errorf("storage: unknown backend type %q", cfg.Type)
	}
}
