package prefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	tu "github.com/desertthunder/ytplay/internal/testing"
)

func albumKey(i int) models.ContentKey {
	return models.Key(models.ContentAlbum, fmt.Sprintf("A%02d", i))
}

func payload(key models.ContentKey) string {
	return fmt.Sprintf(`{"id":%q}`, key.ID)
}

func newTestCache(origin *tu.FakeOrigin, store *tu.FakeStore) *Cache {
	logger := shared.NewLogger(io.Discard)
	if store == nil {
		return NewCache(origin, nil, logger)
	}
	return NewCache(origin, store, logger)
}

func TestCacheGet(t *testing.T) {
	key := albumKey(1)
	origin := tu.NewFakeOrigin().Set(key, payload(key))
	cache := newTestCache(origin, tu.NewFakeStore())

	if _, ok := cache.Get(key); ok {
		t.Fatal("Get() hit before prefetch")
	}
	if origin.TotalCalls() != 0 {
		t.Errorf("Get() performed %d origin calls", origin.TotalCalls())
	}

	if _, err := cache.Prefetch(context.Background(), key); err != nil {
		t.Fatalf("Prefetch() error = %v", err)
	}
	rec, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get() miss after prefetch")
	}
	if rec.Tier != models.TierMemory {
		t.Errorf("Get() tier = %v, want memory", rec.Tier)
	}
	if string(rec.Data) != payload(key) {
		t.Errorf("Get() data = %s", rec.Data)
	}
}

func TestCachePrefetch(t *testing.T) {
	ctx := context.Background()

	t.Run("origin result is cached in memory and written through", func(t *testing.T) {
		key := albumKey(1)
		origin := tu.NewFakeOrigin().Set(key, payload(key))
		store := tu.NewFakeStore()
		cache := newTestCache(origin, store)

		rec, err := cache.Prefetch(ctx, key)
		if err != nil {
			t.Fatalf("Prefetch() error = %v", err)
		}
		if rec == nil || rec.Tier != models.TierOrigin {
			t.Fatalf("Prefetch() = %+v, want origin record", rec)
		}
		if !store.Has(key) {
			t.Error("origin result not written to durable store")
		}

		rec, err = cache.Prefetch(ctx, key)
		if err != nil || rec.Tier != models.TierMemory {
			t.Errorf("second Prefetch() = %+v, %v; want memory hit", rec, err)
		}
		if origin.Calls(key) != 1 {
			t.Errorf("origin calls = %d, want 1", origin.Calls(key))
		}
	})

	t.Run("durable hit skips origin", func(t *testing.T) {
		key := albumKey(2)
		origin := tu.NewFakeOrigin().Set(key, `{"stale":false}`)
		store := tu.NewFakeStore().Seed(key, payload(key), time.Hour)
		cache := newTestCache(origin, store)

		rec, err := cache.Prefetch(ctx, key)
		if err != nil {
			t.Fatalf("Prefetch() error = %v", err)
		}
		if rec.Tier != models.TierDurable || string(rec.Data) != payload(key) {
			t.Errorf("Prefetch() = %+v, want durable record", rec)
		}
		if origin.TotalCalls() != 0 {
			t.Errorf("origin calls = %d, want 0", origin.TotalCalls())
		}
		if _, ok := cache.Get(key); !ok {
			t.Error("durable hit not promoted to memory")
		}
	})

	t.Run("expired durable entry is a miss", func(t *testing.T) {
		key := albumKey(3)
		origin := tu.NewFakeOrigin().Set(key, payload(key))
		store := tu.NewFakeStore().Seed(key, `{"old":true}`, -time.Hour)
		cache := newTestCache(origin, store)

		rec, err := cache.Prefetch(ctx, key)
		if err != nil {
			t.Fatalf("Prefetch() error = %v", err)
		}
		if rec.Tier != models.TierOrigin {
			t.Errorf("tier = %v, want origin", rec.Tier)
		}
		if !store.Has(key) {
			t.Error("refreshed payload not written through")
		}
	})

	t.Run("durable read error falls through to origin", func(t *testing.T) {
		key := albumKey(4)
		origin := tu.NewFakeOrigin().Set(key, payload(key))
		store := tu.NewFakeStore()
		store.GetErr = errors.New("disk I/O error")
		cache := newTestCache(origin, store)

		rec, err := cache.Prefetch(ctx, key)
		if err != nil || rec == nil {
			t.Fatalf("Prefetch() = %v, %v", rec, err)
		}
		if origin.Calls(key) != 1 {
			t.Errorf("origin calls = %d, want 1", origin.Calls(key))
		}
	})

	t.Run("durable write error does not fail the fetch", func(t *testing.T) {
		key := albumKey(5)
		origin := tu.NewFakeOrigin().Set(key, payload(key))
		store := tu.NewFakeStore()
		store.PutErr = errors.New("readonly database")
		cache := newTestCache(origin, store)

		if rec, err := cache.Prefetch(ctx, key); err != nil || rec == nil {
			t.Fatalf("Prefetch() = %v, %v", rec, err)
		}
		if _, ok := cache.Get(key); !ok {
			t.Error("record missing from memory")
		}
	})

	t.Run("without durable store", func(t *testing.T) {
		key := albumKey(6)
		origin := tu.NewFakeOrigin().Set(key, payload(key))
		cache := newTestCache(origin, nil)

		if rec, err := cache.Prefetch(ctx, key); err != nil || rec.Tier != models.TierOrigin {
			t.Fatalf("Prefetch() = %v, %v", rec, err)
		}
	})

	t.Run("not found yields nil and is not cached", func(t *testing.T) {
		key := albumKey(7)
		origin := tu.NewFakeOrigin()
		store := tu.NewFakeStore()
		cache := newTestCache(origin, store)

		for range 2 {
			rec, err := cache.Prefetch(ctx, key)
			if err != nil || rec != nil {
				t.Fatalf("Prefetch() = %v, %v; want nil, nil", rec, err)
			}
		}
		if origin.Calls(key) != 2 {
			t.Errorf("origin calls = %d, want 2", origin.Calls(key))
		}
		if cache.Len() != 0 || len(store.Puts()) != 0 {
			t.Error("not-found result was cached")
		}
		if cache.Stats().NotFound != 2 {
			t.Errorf("Stats().NotFound = %d, want 2", cache.Stats().NotFound)
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		key := albumKey(8)
		origin := tu.NewFakeOrigin().Fail(key, shared.ErrTransientFetch)
		store := tu.NewFakeStore()
		cache := newTestCache(origin, store)

		_, err := cache.Prefetch(ctx, key)
		if !errors.Is(err, shared.ErrTransientFetch) {
			t.Fatalf("Prefetch() error = %v, want ErrTransientFetch", err)
		}
		if _, ok := cache.Get(key); ok {
			t.Error("failure cached in memory")
		}
		if len(store.Puts()) != 0 {
			t.Error("failure written to durable store")
		}

		_, _ = cache.Prefetch(ctx, key)
		if origin.Calls(key) != 2 {
			t.Errorf("origin calls = %d, want 2 after retry", origin.Calls(key))
		}
		if cache.Stats().Failures != 2 {
			t.Errorf("Stats().Failures = %d, want 2", cache.Stats().Failures)
		}
	})

	t.Run("cancelled caller returns context error", func(t *testing.T) {
		key := albumKey(9)
		origin := tu.NewFakeOrigin().Set(key, payload(key))
		origin.Gate = make(chan struct{})
		defer close(origin.Gate)
		cache := newTestCache(origin, nil)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		if _, err := cache.Prefetch(cctx, key); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Prefetch() error = %v, want deadline exceeded", err)
		}
	})
}

func TestCachePrefetchDeduplicates(t *testing.T) {
	key := albumKey(1)
	origin := tu.NewFakeOrigin().Set(key, payload(key))
	origin.Gate = make(chan struct{})
	cache := newTestCache(origin, tu.NewFakeStore())

	const callers = 10
	var wg sync.WaitGroup
	records := make([]*models.ContentRecord, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records[i], errs[i] = cache.Prefetch(context.Background(), key)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(origin.Gate)
	wg.Wait()

	if got := origin.Calls(key); got != 1 {
		t.Errorf("origin calls = %d, want 1", got)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Errorf("caller %d error = %v", i, errs[i])
			continue
		}
		if records[i] == nil || string(records[i].Data) != payload(key) {
			t.Errorf("caller %d record = %+v", i, records[i])
		}
	}
}

func TestCacheBatchPrefetch(t *testing.T) {
	ctx := context.Background()

	t.Run("partitions keys across tiers", func(t *testing.T) {
		origin := tu.NewFakeOrigin()
		origin.Delay = 10 * time.Millisecond
		for i := range 20 {
			if i == 17 {
				continue
			}
			origin.Set(albumKey(i), payload(albumKey(i)))
		}
		origin.Fail(albumKey(18), shared.ErrTransientFetch)

		store := tu.NewFakeStore()
		for i := 2; i <= 4; i++ {
			store.Seed(albumKey(i), payload(albumKey(i)), time.Hour)
		}
		store.Seed(albumKey(5), `{"old":true}`, -time.Hour)

		cache := newTestCache(origin, store)
		for i := range 2 {
			if _, err := cache.Prefetch(ctx, albumKey(i)); err != nil {
				t.Fatalf("warm Prefetch() error = %v", err)
			}
		}

		keys := make([]models.ContentKey, 0, 21)
		for i := range 20 {
			keys = append(keys, albumKey(i))
		}
		keys = append(keys, albumKey(0))

		result := cache.BatchPrefetch(ctx, keys)

		if result.Requested != 20 {
			t.Errorf("Requested = %d, want 20", result.Requested)
		}
		if result.Memory != 2 {
			t.Errorf("Memory = %d, want 2", result.Memory)
		}
		if result.Durable != 3 {
			t.Errorf("Durable = %d, want 3", result.Durable)
		}
		if result.Origin != 13 {
			t.Errorf("Origin = %d, want 13", result.Origin)
		}
		if len(result.NotFound) != 1 || result.NotFound[0] != albumKey(17) {
			t.Errorf("NotFound = %v, want [%v]", result.NotFound, albumKey(17))
		}
		if failed := result.FailedKeys(); len(failed) != 1 || failed[0] != albumKey(18) {
			t.Errorf("FailedKeys() = %v, want [%v]", failed, albumKey(18))
		}
		if !errors.Is(result.Failed[albumKey(18)], shared.ErrTransientFetch) {
			t.Errorf("Failed error = %v", result.Failed[albumKey(18)])
		}
		if result.Resolved() != 18 {
			t.Errorf("Resolved() = %d, want 18", result.Resolved())
		}

		batches := store.BatchGets()
		if len(batches) != 1 || len(batches[0]) != 18 {
			t.Errorf("BatchGet calls = %d (sizes %v), want one call with 18 keys", len(batches), batches)
		}
		if got := origin.MaxInFlight(); got > BatchSize {
			t.Errorf("max concurrent origin requests = %d, want <= %d", got, BatchSize)
		}
		if !store.Has(albumKey(5)) {
			t.Error("expired entry not refreshed")
		}
		if cache.Len() != 18 {
			t.Errorf("Len() = %d, want 18", cache.Len())
		}
	})

	t.Run("all memory hits skip the durable tier", func(t *testing.T) {
		key := albumKey(1)
		origin := tu.NewFakeOrigin().Set(key, payload(key))
		store := tu.NewFakeStore()
		cache := newTestCache(origin, store)
		_, _ = cache.Prefetch(ctx, key)

		result := cache.BatchPrefetch(ctx, []models.ContentKey{key})
		if result.Memory != 1 {
			t.Errorf("Memory = %d, want 1", result.Memory)
		}
		if len(store.BatchGets()) != 0 {
			t.Error("BatchGet called with no pending keys")
		}
	})

	t.Run("batch read error falls through to origin", func(t *testing.T) {
		origin := tu.NewFakeOrigin()
		keys := []models.ContentKey{albumKey(1), albumKey(2)}
		for _, k := range keys {
			origin.Set(k, payload(k))
		}
		store := tu.NewFakeStore()
		store.GetErr = errors.New("database is locked")
		cache := newTestCache(origin, store)

		result := cache.BatchPrefetch(ctx, keys)
		if result.Origin != 2 {
			t.Errorf("Origin = %d, want 2", result.Origin)
		}
		if store.GetCalls() != 0 {
			t.Errorf("single-key reads = %d, want 0", store.GetCalls())
		}
	})

	t.Run("cancelled context fails remaining keys", func(t *testing.T) {
		origin := tu.NewFakeOrigin()
		keys := []models.ContentKey{albumKey(1), albumKey(2), albumKey(3)}
		for _, k := range keys {
			origin.Set(k, payload(k))
		}
		cache := newTestCache(origin, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		result := cache.BatchPrefetch(cctx, keys)

		if len(result.Failed) != 3 {
			t.Errorf("Failed = %d, want 3", len(result.Failed))
		}
		if origin.TotalCalls() != 0 {
			t.Errorf("origin calls = %d, want 0", origin.TotalCalls())
		}
	})

	t.Run("empty input", func(t *testing.T) {
		cache := newTestCache(tu.NewFakeOrigin(), tu.NewFakeStore())
		result := cache.BatchPrefetch(ctx, nil)
		if result.Requested != 0 || result.Resolved() != 0 {
			t.Errorf("result = %+v, want empty", result)
		}
	})
}

func TestCacheStats(t *testing.T) {
	ctx := context.Background()
	hit, miss := albumKey(1), albumKey(2)
	origin := tu.NewFakeOrigin().Set(hit, payload(hit))
	store := tu.NewFakeStore().Seed(miss, payload(miss), time.Hour)
	cache := newTestCache(origin, store)

	_, _ = cache.Prefetch(ctx, hit)
	_, _ = cache.Prefetch(ctx, hit)
	_, _ = cache.Prefetch(ctx, miss)

	stats := cache.Stats()
	if stats.Entries != 2 || stats.OriginFetches != 1 || stats.MemoryHits != 1 || stats.DurableHits != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}
