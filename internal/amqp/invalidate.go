package amqp

import (
	"context"
	"fmt"
	"log/slog"
)

// ResponseFlusher clears cached report responses.
type ResponseFlusher interface {
	Flush(ctx context.Context) error
}

// FlushCacheOnReplace returns a dataset-event handler that drops every cached
// response, making a reseed visible immediately instead of after the cache
// TTL runs out. A failed flush is returned so the delivery is requeued.
func FlushCacheOnReplace(ctx context.Context, cache ResponseFlusher) func(*DatasetReplacedMessage) error {
	return func(msg *DatasetReplacedMessage) error {
		if err := cache.Flush(ctx); err != nil {
			return fmt.Errorf("flush response cache: %w", err)
		}
		slog.InfoContext(ctx, "Flushed response cache after reseed",
			"count", msg.Count,
			"source", msg.Source)
		return nil
	}
}
