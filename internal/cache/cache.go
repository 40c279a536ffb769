package cache

import (
	"context"
	"errors"
	"time"
)

// Cache defines the cache interface
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, pattern string) error
	Close() error
}

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// TenantKey returns the cache key of a tenant snapshot
func TenantKey(tenantID string) string {
	return "tenant:" + tenantID + ":config"
}

// TenantPattern matches every tenant snapshot key
const TenantPattern = "tenant:*"
