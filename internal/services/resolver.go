package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/shared"
	"golang.org/x/time/rate"
)

const defaultOEmbedBaseURL = "https://www.youtube.com"

// OEmbedResolver resolves video metadata through an oEmbed endpoint.
type OEmbedResolver struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewOEmbedResolver creates a resolver against baseURL limited to rps requests per second (0 disables limiting).
func NewOEmbedResolver(baseURL string, rps float64, client *http.Client, logger *log.Logger) *OEmbedResolver {
	if baseURL == "" {
		baseURL = defaultOEmbedBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}

	return &OEmbedResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    limiter,
		logger:     shared.WithLogger(logger, "component", "resolver"),
	}
}

// Resolve fetches the title and author of videoID.
//
// Calls GET /oembed?url=<watch url>&format=json. A single attempt is made.
func (r *OEmbedResolver) Resolve(ctx context.Context, videoID string) (*Metadata, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("resolve canceled: %w", err)
		}
	}

	q := url.Values{
		"url":    {"https://www.youtube.com/watch?v=" + videoID},
		"format": {"json"},
	}
	apiURL := r.baseURL + "/oembed?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: video %s", shared.ErrNotFound, videoID)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: oembed status %d", shared.ErrTransientFetch, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: oembed status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode oembed response: %w", err)
	}

	r.logger.Debug("resolved metadata", "video_id", videoID, "title", meta.Title)
	return &meta, nil
}
