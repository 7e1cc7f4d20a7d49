// Package cache provides the key/value cache used to short-circuit reads.
//
// Values are stored JSON-encoded, so a Get decodes into a fresh value equal to
// what was Set. Keys are hierarchical and colon-separated; DeleteByPattern
// takes a glob where '*' matches any sequence and '?' any single character,
// anchored at both ends. Patterns containing '[' or '\' are rejected with
// ErrUnsupportedPattern, since redis would read them as classes and escapes.
//
// A Set with a ttl of zero or less stores nothing and removes any entry
// already at that key.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrUnsupportedPattern = errors.New("cache: pattern may only use '*' and '?' as special characters")

type Cache interface {
	// Get decodes the value stored at key into dest and reports whether it was
	// present and unexpired.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPattern removes every key matching pattern and returns how many
	// were removed. It is a best-effort scan, not an atomic operation.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// DefaultTTL applies to every cached projection.
const DefaultTTL = 600 * time.Second
