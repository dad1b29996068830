// Package cache stores marshaled aggregate responses so repeated month
// queries skip the store. Entries are keyed by request URI; TTL bounds
// staleness after a dataset reseed.
package cache

import "context"

// ResponseCache is the cache-aside port used by the HTTP layer. A lookup
// failure is a miss, never an error: the report is simply recomputed.
// Flush drops every cached response; the reseed event handler calls it so
// fresh data is visible before the TTL elapses.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Flush(ctx context.Context) error
}
