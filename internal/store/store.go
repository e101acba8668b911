package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound indicates the requested key has never been written.
var ErrKeyNotFound = errors.New("store: key not found")

// Store is the durable key-value surface the approval core persists through.
// Keys are hierarchical slash-separated paths; each Put is an atomic
// single-key write and ListChildren enumerates every key under a prefix.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	ListChildren(ctx context.Context, prefix string) ([]string, error)
}
