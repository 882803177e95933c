package prefetch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// BatchSize is the number of concurrent origin requests per group in [Cache.BatchPrefetch].
const BatchSize = 8

// DurableStore is the persistent tier. Get returns nil, nil on a miss; expired entries are misses.
type DurableStore interface {
	Get(hashedKey string) (*models.CacheEntry, error)
	BatchGet(hashedKeys []string) (map[string]*models.CacheEntry, error)
	Put(key models.ContentKey, data []byte) error
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries       int
	MemoryHits    int64
	DurableHits   int64
	OriginFetches int64
	NotFound      int64
	Failures      int64
	SharedFlights int64
}

type counters struct {
	memoryHits    atomic.Int64
	durableHits   atomic.Int64
	originFetches atomic.Int64
	notFound      atomic.Int64
	failures      atomic.Int64
	sharedFlights atomic.Int64
}

// Cache is the prefetch cache. The zero value is not usable; see [NewCache].
type Cache struct {
	origin services.ContentOrigin
	store  DurableStore
	logger *log.Logger
	clock  func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	entries map[models.ContentKey]models.ContentRecord

	stats counters
}

// NewCache creates a [Cache]. A nil store disables the durable tier.
func NewCache(origin services.ContentOrigin, store DurableStore, logger *log.Logger) *Cache {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Cache{
		origin:  origin,
		store:   store,
		logger:  shared.WithLogger(logger, "component", "prefetch"),
		clock:   time.Now,
		entries: make(map[models.ContentKey]models.ContentRecord),
	}
}

// Get returns the memory-tier record for key. It never performs I/O.
func (c *Cache) Get(key models.ContentKey) (models.ContentRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[key]
	if !ok {
		return models.ContentRecord{}, false
	}
	rec.Tier = models.TierMemory
	return rec, true
}

// Len returns the number of memory-tier records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns counters accumulated since construction.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:       c.Len(),
		MemoryHits:    c.stats.memoryHits.Load(),
		DurableHits:   c.stats.durableHits.Load(),
		OriginFetches: c.stats.originFetches.Load(),
		NotFound:      c.stats.notFound.Load(),
		Failures:      c.stats.failures.Load(),
		SharedFlights: c.stats.sharedFlights.Load(),
	}
}

func (c *Cache) put(rec models.ContentRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rec.Key] = rec
}

// Prefetch resolves key through the tiers. A key the origin does not know yields nil, nil.
//
// Callers that arrive while the same key is in flight share its outcome. Cancelling ctx abandons this
// caller's wait without cancelling the shared fetch.
func (c *Cache) Prefetch(ctx context.Context, key models.ContentKey) (*models.ContentRecord, error) {
	if rec, ok := c.Get(key); ok {
		c.stats.memoryHits.Add(1)
		return &rec, nil
	}
	return c.load(ctx, key, true)
}

func (c *Cache) load(ctx context.Context, key models.ContentKey, checkStore bool) (*models.ContentRecord, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.resolve(flightCtx, key, checkStore)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.stats.sharedFlights.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		rec := res.Val.(*models.ContentRecord)
		if rec == nil {
			return nil, nil
		}
		out := *rec
		return &out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve runs once per flight.
func (c *Cache) resolve(ctx context.Context, key models.ContentKey, checkStore bool) (*models.ContentRecord, error) {
	if rec, ok := c.Get(key); ok {
		c.stats.memoryHits.Add(1)
		return &rec, nil
	}

	if checkStore && c.store != nil {
		entry, err := c.store.Get(key.Hash())
		if err != nil {
			c.logger.Warn("durable read failed, falling through to origin", "key", key, "error", err)
		} else if entry != nil {
			rec := entry.Record()
			c.put(rec)
			c.stats.durableHits.Add(1)
			return &rec, nil
		}
	}

	return c.fetch(ctx, key)
}

func (c *Cache) fetch(ctx context.Context, key models.ContentKey) (*models.ContentRecord, error) {
	data, err := c.origin.Fetch(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		c.stats.notFound.Add(1)
		c.logger.Debug("origin has no content", "key", key)
		return nil, nil
	}
	if err != nil {
		c.stats.failures.Add(1)
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}

	rec := models.ContentRecord{Key: key, Data: data, Tier: models.TierOrigin, FetchedAt: c.clock().UTC()}
	c.put(rec)
	c.stats.originFetches.Add(1)

	if c.store != nil {
		if err := c.store.Put(key, data); err != nil {
			c.logger.Warn("durable write failed", "key", key, "error", err)
		}
	}
	return &rec, nil
}

// BatchResult summarizes a [Cache.BatchPrefetch] call.
type BatchResult struct {
	Requested int
	Memory    int
	Durable   int
	Origin    int
	NotFound  []models.ContentKey
	Failed    map[models.ContentKey]error
}

// Resolved returns the number of keys that produced a record.
func (r BatchResult) Resolved() int {
	return r.Memory + r.Durable + r.Origin
}

// FailedKeys returns failed keys in a stable order.
func (r BatchResult) FailedKeys() []models.ContentKey {
	keys := make([]models.ContentKey, 0, len(r.Failed))
	for k := range r.Failed {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b models.ContentKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

func (r *BatchResult) tally(tier models.Tier) {
	switch tier {
	case models.TierMemory:
		r.Memory++
	case models.TierDurable:
		r.Durable++
	case models.TierOrigin:
		r.Origin++
	}
}

// BatchPrefetch resolves keys with one durable batch read and grouped origin fetches.
//
// Duplicate keys are resolved once. Groups run sequentially; keys within a group run concurrently and every
// key settles independently. A cancelled ctx marks unstarted keys as failed.
func (c *Cache) BatchPrefetch(ctx context.Context, keys []models.ContentKey) BatchResult {
	result := BatchResult{Failed: make(map[models.ContentKey]error)}

	seen := make(map[models.ContentKey]struct{}, len(keys))
	pending := make([]models.ContentKey, 0, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result.Requested++

		if _, ok := c.Get(key); ok {
			c.stats.memoryHits.Add(1)
			result.Memory++
			continue
		}
		pending = append(pending, key)
	}

	misses := c.batchFromStore(pending, &result)

	for start := 0; start < len(misses); start += BatchSize {
		if err := ctx.Err(); err != nil {
			for _, key := range misses[start:] {
				result.Failed[key] = err
			}
			break
		}

		group := misses[start:min(start+BatchSize, len(misses))]
		records := make([]*models.ContentRecord, len(group))
		errs := make([]error, len(group))

		var g errgroup.Group
		for i, key := range group {
			g.Go(func() error {
				records[i], errs[i] = c.load(ctx, key, false)
				return nil
			})
		}
		_ = g.Wait()

		for i, key := range group {
			switch {
			case errs[i] != nil:
				result.Failed[key] = errs[i]
			case records[i] == nil:
				result.NotFound = append(result.NotFound, key)
			default:
				result.tally(records[i].Tier)
			}
		}
	}

	c.logger.Debug("batch prefetch complete",
		"requested", result.Requested,
		"memory", result.Memory,
		"durable", result.Durable,
		"origin", result.Origin,
		"not_found", len(result.NotFound),
		"failed", len(result.Failed))
	return result
}

// batchFromStore reads pending keys from the durable tier in one call and returns the misses.
func (c *Cache) batchFromStore(pending []models.ContentKey, result *BatchResult) []models.ContentKey {
	if len(pending) == 0 || c.store == nil {
		return pending
	}

	hashes := make([]string, len(pending))
	for i, key := range pending {
		hashes[i] = key.Hash()
	}

	entries, err := c.store.BatchGet(hashes)
	if err != nil {
		c.logger.Warn("durable batch read failed, falling through to origin", "keys", len(hashes), "error", err)
		return pending
	}

	misses := make([]models.ContentKey, 0, len(pending))
	for i, key := range pending {
		entry, ok := entries[hashes[i]]
		if !ok || entry == nil {
			misses = append(misses, key)
			continue
		}
		c.put(entry.Record())
		c.stats.durableHits.Add(1)
		result.Durable++
	}
	return misses
}
