// Package cache provides a best-effort read-through cache for
// available-stock lookups. Every implementation is error-free at the call
// site: a cache outage degrades to a database read, it never surfaces as a
// request failure.
package cache

import (
	"context"
	"fmt"
	"time"
)

// AvailableStockTTL is how long a cached available-stock value is trusted
// before the next read falls through to the database.
const AvailableStockTTL = 10 * time.Second

// AvailableStockKey builds the cache key for a product's available stock.
func AvailableStockKey(productID string) string {
	return fmt.Sprintf("product_%s_available_stock", productID)
}

// Store is the read-through cache surface the app layer depends on. No
// method returns an error: failures are logged internally and treated as
// misses, per the design note against a cache facade that can itself
// become a hidden global point of failure.
type Store interface {
	// Get reports the cached value and whether it was present and unexpired.
	Get(ctx context.Context, key string) (string, bool)
	// Put stores value under key for the given ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration)
	// Forget evicts key immediately, e.g. after a write invalidates it.
	Forget(ctx context.Context, key string)
}
