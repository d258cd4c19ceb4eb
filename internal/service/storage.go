package service

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Storage.Get for unknown or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// Storage caches raw upstream payloads by key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Close() error
}

// HealthStorage is a Storage that can report backend reachability.
type HealthStorage interface {
	Storage
	Ping(ctx context.Context) error
}
