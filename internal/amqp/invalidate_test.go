package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"salestats/internal/cache"
)

type fakeFlusher struct {
	calls int
	err   error
}

func (f *fakeFlusher) Flush(context.Context) error {
	f.calls++
	return f.err
}

func TestFlushCacheOnReplace(t *testing.T) {
	flusher := &fakeFlusher{}
	handler := FlushCacheOnReplace(context.Background(), flusher)

	if err := handler(NewDatasetReplacedMessage(60, "https://example.com/seed.json")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if flusher.calls != 1 {
		t.Errorf("Flush called %d times, want 1", flusher.calls)
	}
}

func TestFlushCacheOnReplace_FlushErrorPropagates(t *testing.T) {
	errFlush := errors.New("redis down")
	handler := FlushCacheOnReplace(context.Background(), &fakeFlusher{err: errFlush})

	err := handler(NewDatasetReplacedMessage(1, "src"))
	if !errors.Is(err, errFlush) {
		t.Errorf("err = %v, want wrapped flush failure so the delivery is requeued", err)
	}
}

func TestFlushCacheOnReplace_DropsCachedResponses(t *testing.T) {
	ctx := context.Background()
	local := cache.NewLocalCache(16, time.Minute)
	local.Set(ctx, "/api/statistics?month=2022-03", []byte(`{"totalSoldItems":7}`))
	local.Set(ctx, "/api/bar-chart?month=2022-03", []byte(`[]`))

	handler := FlushCacheOnReplace(ctx, local)
	if err := handler(NewDatasetReplacedMessage(2, "src")); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if _, ok := local.Get(ctx, "/api/statistics?month=2022-03"); ok {
		t.Error("statistics response survived the reseed flush")
	}
	if _, ok := local.Get(ctx, "/api/bar-chart?month=2022-03"); ok {
		t.Error("bar-chart response survived the reseed flush")
	}
}
