// package services defines the content origin and metadata resolver contracts and their HTTP implementations
package services

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/ytplay/internal/models"
)

// ContentOrigin serves raw catalog payloads by content key.
type ContentOrigin interface {
	// Fetch returns the payload for key. A 404 yields [shared.ErrNotFound].
	Fetch(ctx context.Context, key models.ContentKey) (json.RawMessage, error)
}

// MetadataResolver resolves display metadata for a single video id. Failures are per id.
type MetadataResolver interface {
	Resolve(ctx context.Context, videoID string) (*Metadata, error)
}

// Metadata is the resolved title and author of a video.
type Metadata struct {
	Title  string `json:"title"`
	Author string `json:"author_name"`
}

var (
	_ ContentOrigin    = (*OriginService)(nil)
	_ MetadataResolver = (*OEmbedResolver)(nil)
)
