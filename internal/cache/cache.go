// Package cache holds paged product-list responses so that repeated
// catalog reads skip the database. Writes to the catalog invalidate by
// key prefix.
package cache

import (
	"context"
	"time"
)

// Cache stores raw JSON payloads keyed by request shape. Get returns
// (payload, true, nil) on a hit and (nil, false, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type Noop struct{}

func (Noop) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (Noop) DeleteByPrefix(_ context.Context, _ string) error {
	return nil
}
