// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"strings"
	"time"
)

// maxBatchParams keeps IN (...) lists under SQLite's bound parameter limit.
const maxBatchParams = 500

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// chunk splits keys into slices of at most size elements.
func chunk(keys []string, size int) [][]string {
	var out [][]string
	for len(keys) > size {
		out = append(out, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}
