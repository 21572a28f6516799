// Package kv provides the byte-level key/value stores behind the embedded
// storage backend. A missing key reads as (nil, nil).
package kv

import "context"

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
