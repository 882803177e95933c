package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// DurableStoreAdapter implements prefetch.DurableStore using ContentCacheRepository.
//
// Expired rows are reported as misses. Hit counting is best effort and never fails a read.
type DurableStoreAdapter struct {
	repo   *ContentCacheRepository
	ttl    time.Duration
	logger *log.Logger
	clock  func() time.Time
}

// NewDurableStoreAdapter creates a new DurableStoreAdapter writing entries that live for ttl
func NewDurableStoreAdapter(repo *ContentCacheRepository, ttl time.Duration, logger *log.Logger) *DurableStoreAdapter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DurableStoreAdapter{repo: repo, ttl: ttl, logger: logger, clock: now}
}

// Get returns the live entry for hashedKey, or nil when absent or expired.
func (a *DurableStoreAdapter) Get(hashedKey string) (*models.CacheEntry, error) {
	entry, err := a.repo.Get(hashedKey)
	if errors.Is(err, shared.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.Expired(a.clock()) {
		return nil, nil
	}

	a.recordHits([]string{hashedKey})
	return entry, nil
}

// BatchGet returns the live entries among hashedKeys in a single query.
func (a *DurableStoreAdapter) BatchGet(hashedKeys []string) (map[string]*models.CacheEntry, error) {
	if len(hashedKeys) == 0 {
		return map[string]*models.CacheEntry{}, nil
	}

	entries, err := a.repo.BatchGet(hashedKeys)
	if err != nil {
		return nil, err
	}

	at := a.clock()
	hits := make([]string, 0, len(entries))
	for key, entry := range entries {
		if entry.Expired(at) {
			delete(entries, key)
			continue
		}
		hits = append(hits, key)
	}

	a.recordHits(hits)
	return entries, nil
}

// Put writes data for key with the adapter TTL, replacing any previous payload.
func (a *DurableStoreAdapter) Put(key models.ContentKey, data []byte) error {
	if err := a.repo.Upsert(models.NewCacheEntry(key, data, a.ttl)); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (a *DurableStoreAdapter) recordHits(keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := a.repo.RecordHits(keys); err != nil {
		a.logger.Warn("failed to record cache hits", "count", len(keys), "error", err)
	}
}
