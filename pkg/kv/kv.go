// Package kv provides a small key-value store with hierarchical keys.
// Keys are string slices such as ["pass", "20261014T150405.000000000", id]
// joined with a separator byte (default ':') for storage.
//
// Badger persists to disk; Memory is for tests and --no-history runs.
package kv

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path. Segments must not contain the separator.
type Key []string

// String joins the key with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry is a key-value pair returned by List and used by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// ListOptions controls iteration.
type ListOptions struct {
	// Reverse iterates in descending key order.
	Reverse bool

	// Limit stops after this many entries. Zero means no limit.
	Limit int
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a value, overwriting any existing one.
	Set(ctx context.Context, key Key, value []byte) error

	// List iterates over the entries below prefix in key order.
	List(ctx context.Context, prefix Key, opts ListOptions) iter.Seq2[Entry, error]

	// BatchSet stores several entries atomically.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete removes several keys atomically. Missing keys are ignored.
	BatchDelete(ctx context.Context, keys []Key) error

	Close() error
}

// DefaultSeparator joins key segments when no Options are given.
const DefaultSeparator byte = ':'

// Options configures key encoding.
type Options struct {
	// Separator joins key segments. Zero means DefaultSeparator.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

func (o *Options) encode(k Key) []byte {
	return []byte(strings.Join(k, string(o.sep())))
}

func (o *Options) decode(b []byte) Key {
	parts := bytes.Split(b, []byte{o.sep()})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}

// prefixBytes returns the encoded prefix followed by the separator so that
// ["a", "b"] does not match "a:bc". An empty prefix matches everything.
func (o *Options) prefixBytes(prefix Key) []byte {
	if len(prefix) == 0 {
		return nil
	}
	return append(o.encode(prefix), o.sep())
}
