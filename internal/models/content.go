package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/shared"
)

// ContentType names a kind of catalog lookup.
type ContentType string

const (
	ContentAlbum    ContentType = "album"
	ContentPlaylist ContentType = "playlist"
	ContentWatch    ContentType = "watch"
	ContentArtist   ContentType = "artist"
	ContentSearch   ContentType = "search"
	ContentHome     ContentType = "home"
	ContentCharts   ContentType = "charts"
	ContentMoods    ContentType = "moods"
)

// ContentTypes lists every supported [ContentType].
var ContentTypes = []ContentType{
	ContentAlbum, ContentPlaylist, ContentWatch, ContentArtist,
	ContentSearch, ContentHome, ContentCharts, ContentMoods,
}

// ParseContentType validates a content type name.
func ParseContentType(s string) (ContentType, error) {
	for _, ct := range ContentTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return "", fmt.Errorf("%w: unknown content type %q", shared.ErrInvalidArgument, s)
}

// ContentKey identifies one cached catalog object.
type ContentKey struct {
	Type ContentType
	ID   string
}

// Key is shorthand for building a [ContentKey].
func Key(t ContentType, id string) ContentKey {
	return ContentKey{Type: t, ID: id}
}

func (k ContentKey) String() string {
	return string(k.Type) + ":" + k.ID
}

// Hash returns the durable-tier key for k.
func (k ContentKey) Hash() string {
	return shared.HashKey(string(k.Type), k.ID)
}

// Tier is one layer of the prefetch cache, consulted in order.
type Tier int

const (
	TierMemory Tier = iota
	TierDurable
	TierOrigin
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierDurable:
		return "durable"
	case TierOrigin:
		return "origin"
	default:
		return ""
	}
}

// ContentRecord is a cached catalog payload and the tier that produced it.
type ContentRecord struct {
	Key       ContentKey
	Data      json.RawMessage
	Tier      Tier
	FetchedAt time.Time
}

// Decode unmarshals the record payload into v.
func (r ContentRecord) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", r.Key, err)
	}
	return nil
}

// CacheEntry is a durable-tier row. Entries past their expiry are treated as misses.
type CacheEntry struct {
	hashedKey   string
	contentType ContentType
	contentID   string
	data        []byte
	hits        int
	expiresAt   time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

var _ Model = (*CacheEntry)(nil)

// NewCacheEntry creates an entry for key expiring ttl from now.
func NewCacheEntry(key ContentKey, data []byte, ttl time.Duration) *CacheEntry {
	now := time.Now().UTC()
	return &CacheEntry{
		hashedKey:   key.Hash(),
		contentType: key.Type,
		contentID:   key.ID,
		data:        data,
		expiresAt:   now.Add(ttl),
		createdAt:   now,
		updatedAt:   now,
	}
}

// RestoreCacheEntry rebuilds an entry from persisted columns.
func RestoreCacheEntry(hashedKey string, contentType ContentType, contentID string, data []byte, hits int, expiresAt, createdAt, updatedAt time.Time) *CacheEntry {
	return &CacheEntry{
		hashedKey:   hashedKey,
		contentType: contentType,
		contentID:   contentID,
		data:        data,
		hits:        hits,
		expiresAt:   expiresAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (e *CacheEntry) ID() string               { return e.hashedKey }
func (e *CacheEntry) HashedKey() string        { return e.hashedKey }
func (e *CacheEntry) ContentType() ContentType { return e.contentType }
func (e *CacheEntry) ContentID() string        { return e.contentID }
func (e *CacheEntry) Data() []byte             { return e.data }
func (e *CacheEntry) Hits() int                { return e.hits }
func (e *CacheEntry) ExpiresAt() time.Time     { return e.expiresAt }
func (e *CacheEntry) CreatedAt() time.Time     { return e.createdAt }
func (e *CacheEntry) UpdatedAt() time.Time     { return e.updatedAt }

// Key returns the logical content key of the entry.
func (e *CacheEntry) Key() ContentKey {
	return ContentKey{Type: e.contentType, ID: e.contentID}
}

// Expired reports whether the entry is past its TTL at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Refresh replaces the payload and pushes the expiry ttl past now.
func (e *CacheEntry) Refresh(data []byte, ttl time.Duration) {
	now := time.Now().UTC()
	e.data = data
	e.expiresAt = now.Add(ttl)
	e.updatedAt = now
}

// Validate checks the entry has a key, a payload and a content type.
func (e *CacheEntry) Validate() error {
	if e.hashedKey == "" {
		return fmt.Errorf("%w: cache entry requires a hashed key", shared.ErrInvalidInput)
	}
	if e.contentID == "" {
		return fmt.Errorf("%w: cache entry requires a content id", shared.ErrInvalidInput)
	}
	if _, err := ParseContentType(string(e.contentType)); err != nil {
		return err
	}
	if len(e.data) == 0 {
		return fmt.Errorf("%w: cache entry requires data", shared.ErrInvalidInput)
	}
	return nil
}

// Record converts the entry into a durable-tier [ContentRecord].
func (e *CacheEntry) Record() ContentRecord {
	return ContentRecord{
		Key:       e.Key(),
		Data:      json.RawMessage(e.data),
		Tier:      TierDurable,
		FetchedAt: e.updatedAt,
	}
}
