package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

const cacheColumns = `hashed_key, content_type, content_id, data, hits, expires_at, created_at, updated_at`

// ContentCacheRepository implements models.Repository[*models.CacheEntry] for the content_cache table.
type ContentCacheRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CacheEntry] = (*ContentCacheRepository)(nil)

// CacheStats summarizes the durable tier.
type CacheStats struct {
	Entries int
	Expired int
	Hits    int
	Bytes   int64
	ByType  map[models.ContentType]int
}

// NewContentCacheRepository creates a new ContentCacheRepository with the given database connection
func NewContentCacheRepository(db *sql.DB) *ContentCacheRepository {
	return &ContentCacheRepository{db: db}
}

// Create inserts a new entry. Fails when the hashed key already exists.
func (r *ContentCacheRepository) Create(entry *models.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO content_cache (` + cacheColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query,
		entry.HashedKey(),
		string(entry.ContentType()),
		entry.ContentID(),
		entry.Data(),
		entry.Hits(),
		entry.ExpiresAt(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	return nil
}

// Upsert inserts the entry or replaces the payload and expiry of an existing row, keeping its hit count.
func (r *ContentCacheRepository) Upsert(entry *models.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO content_cache (` + cacheColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hashed_key) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query,
		entry.HashedKey(),
		string(entry.ContentType()),
		entry.ContentID(),
		entry.Data(),
		entry.Hits(),
		entry.ExpiresAt(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by hashed key, expired or not.
//
// Returns [shared.ErrCacheMiss] when no row exists.
func (r *ContentCacheRepository) Get(hashedKey string) (*models.CacheEntry, error) {
	query := `SELECT ` + cacheColumns + ` FROM content_cache WHERE hashed_key = ?`

	entry, err := scanEntry(r.db.QueryRow(query, hashedKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCacheMiss, hashedKey)
	}
	return entry, err
}

// BatchGet retrieves all entries whose hashed key is in keys, keyed by hashed key.
//
// Missing keys are absent from the result. Expired rows are included.
func (r *ContentCacheRepository) BatchGet(keys []string) (map[string]*models.CacheEntry, error) {
	result := make(map[string]*models.CacheEntry, len(keys))

	for _, part := range chunk(keys, maxBatchParams) {
		query := `SELECT ` + cacheColumns + ` FROM content_cache WHERE hashed_key IN (` + placeholders(len(part)) + `)`

		args := make([]any, len(part))
		for i, k := range part {
			args[i] = k
		}

		rows, err := r.db.Query(query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query cache entries: %w", err)
		}

		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			result[entry.HashedKey()] = entry
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating cache entries: %w", err)
		}
	}

	return result, nil
}

// Update replaces payload and expiry of an existing entry.
func (r *ContentCacheRepository) Update(entry *models.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `UPDATE content_cache SET data = ?, expires_at = ?, updated_at = ? WHERE hashed_key = ?`
	result, err := r.db.Exec(query, entry.Data(), entry.ExpiresAt(), entry.UpdatedAt(), entry.HashedKey())
	if err != nil {
		return fmt.Errorf("failed to update cache entry: %w", err)
	}

	return expectAffected(result, entry.HashedKey())
}

// Delete removes an entry by hashed key.
func (r *ContentCacheRepository) Delete(hashedKey string) error {
	result, err := r.db.Exec(`DELETE FROM content_cache WHERE hashed_key = ?`, hashedKey)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return expectAffected(result, hashedKey)
}

// List retrieves entries matching the criteria.
//
// Supported criteria: "content_type" (string or models.ContentType), "content_id" (string), "expired" (bool).
func (r *ContentCacheRepository) List(criteria map[string]any) ([]*models.CacheEntry, error) {
	query := `SELECT ` + cacheColumns + ` FROM content_cache WHERE 1 = 1`
	args := []any{}

	switch ct := criteria["content_type"].(type) {
	case string:
		if ct != "" {
			query += " AND content_type = ?"
			args = append(args, ct)
		}
	case models.ContentType:
		query += " AND content_type = ?"
		args = append(args, string(ct))
	}

	if id, ok := criteria["content_id"].(string); ok && id != "" {
		query += " AND content_id = ?"
		args = append(args, id)
	}

	if expired, ok := criteria["expired"].(bool); ok {
		if expired {
			query += " AND expires_at <= ?"
		} else {
			query += " AND expires_at > ?"
		}
		args = append(args, now())
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.CacheEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cache entries: %w", err)
	}

	return entries, nil
}

// RecordHits increments the read counter of each hashed key.
func (r *ContentCacheRepository) RecordHits(keys []string) error {
	for _, part := range chunk(keys, maxBatchParams) {
		args := make([]any, len(part))
		for i, k := range part {
			args[i] = k
		}
		query := `UPDATE content_cache SET hits = hits + 1 WHERE hashed_key IN (` + placeholders(len(part)) + `)`
		if _, err := r.db.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to record cache hits: %w", err)
		}
	}
	return nil
}

// PurgeExpired deletes every entry whose expiry is at or before at and returns the number removed.
func (r *ContentCacheRepository) PurgeExpired(at time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM content_cache WHERE expires_at <= ?`, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// Stats aggregates entry counts, hits and payload size.
func (r *ContentCacheRepository) Stats() (*CacheStats, error) {
	stats := &CacheStats{ByType: make(map[models.ContentType]int)}

	query := `
		SELECT content_type, COUNT(*), COALESCE(SUM(hits), 0), COALESCE(SUM(LENGTH(data)), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM content_cache
		GROUP BY content_type
	`
	rows, err := r.db.Query(query, now())
	if err != nil {
		return nil, fmt.Errorf("failed to query cache stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			contentType string
			count       int
			hits        int
			size        int64
			expired     int
		)
		if err := rows.Scan(&contentType, &count, &hits, &size, &expired); err != nil {
			return nil, fmt.Errorf("failed to scan cache stats: %w", err)
		}
		stats.ByType[models.ContentType(contentType)] = count
		stats.Entries += count
		stats.Hits += hits
		stats.Bytes += size
		stats.Expired += expired
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cache stats: %w", err)
	}

	return stats, nil
}

// scanEntry scans one content_cache row into a [models.CacheEntry]
func scanEntry(s scanner) (*models.CacheEntry, error) {
	var (
		hashedKey   string
		contentType string
		contentID   string
		data        []byte
		hits        int
		expiresAt   time.Time
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := s.Scan(&hashedKey, &contentType, &contentID, &data, &hits, &expiresAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache entry: %w", err)
	}

	return models.RestoreCacheEntry(hashedKey, models.ContentType(contentType), contentID, data, hits, expiresAt, createdAt, updatedAt), nil
}

func expectAffected(result sql.Result, key string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCacheMiss, key)
	}
	return nil
}
