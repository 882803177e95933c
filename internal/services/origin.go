// Catalog API (content origin) client
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultOriginBaseURL string = "http://localhost:8080"

// OriginService is the HTTP client for the catalog API.
type OriginService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retryPolicy
	logger     *log.Logger
}

// OriginOpts configures an [OriginService]. Zero values select defaults.
type OriginOpts struct {
	BaseURL     string
	Token       string        // static bearer token, optional
	RateLimit   float64       // requests per second, 0 disables limiting
	MaxRetries  int           // attempts per request
	BaseBackoff time.Duration // first retry delay, doubled per attempt
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// NewOriginService creates a catalog API client.
func NewOriginService(opts OriginOpts) *OriginService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOriginBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	client := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client = &c
	}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, src)
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &OriginService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    limiter,
		retry:      retryPolicy{maxRetries: opts.MaxRetries, baseBackoff: opts.BaseBackoff},
		logger:     shared.WithLogger(opts.Logger, "component", "origin"),
	}
}

// NewOriginServiceFromConfig creates a client from the [origin] config section.
func NewOriginServiceFromConfig(c shared.OriginConfig, logger *log.Logger) *OriginService {
	return NewOriginService(OriginOpts{
		BaseURL:    c.BaseURL,
		Token:      c.Token,
		RateLimit:  c.RateLimit,
		MaxRetries: c.MaxRetries,
		Timeout:    c.Timeout(),
		Logger:     logger,
	})
}

// Name returns the service name.
func (o *OriginService) Name() string {
	return "Content Origin"
}

// MoodsID encodes a moods lookup as a content id.
func MoodsID(country, lang string) string {
	return country + "/" + lang
}

// Endpoint maps a content key to its request path.
func Endpoint(key models.ContentKey) (string, error) {
	id := url.PathEscape(key.ID)
	switch key.Type {
	case models.ContentAlbum, models.ContentPlaylist, models.ContentWatch, models.ContentArtist:
		if key.ID == "" {
			return "", fmt.Errorf("%w: %s lookup requires an id", shared.ErrMissingArgument, key.Type)
		}
		return fmt.Sprintf("/api/%s/%s", key.Type, id), nil
	case models.ContentSearch:
		return "/api/search?" + url.Values{"q": {key.ID}}.Encode(), nil
	case models.ContentHome:
		return "/api/home", nil
	case models.ContentCharts:
		if key.ID == "" {
			return "/api/charts", nil
		}
		return "/api/charts?" + url.Values{"country": {key.ID}}.Encode(), nil
	case models.ContentMoods:
		q := url.Values{}
		country, lang, _ := strings.Cut(key.ID, "/")
		if country != "" {
			q.Set("country", country)
		}
		if lang != "" {
			q.Set("lang", lang)
		}
		if len(q) == 0 {
			return "/api/moods", nil
		}
		return "/api/moods?" + q.Encode(), nil
	default:
		return "", fmt.Errorf("%w: unknown content type %q", shared.ErrInvalidArgument, key.Type)
	}
}

// Fetch returns the raw payload for key.
func (o *OriginService) Fetch(ctx context.Context, key models.ContentKey) (json.RawMessage, error) {
	endpoint, err := Endpoint(key)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := o.doRequest(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	return raw, nil
}

// Album retrieves album details.
//
// Calls GET /api/album/{id}.
func (o *OriginService) Album(ctx context.Context, id string) (*models.Album, error) {
	var album models.Album
	if err := o.get(ctx, models.Key(models.ContentAlbum, id), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Playlist retrieves playlist tracks.
//
// Calls GET /api/playlist/{id}.
func (o *OriginService) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := o.get(ctx, models.Key(models.ContentPlaylist, id), &playlist); err != nil {
		return nil, err
	}
	if playlist.ID == "" {
		playlist.ID = id
	}
	return &playlist, nil
}

// Watch retrieves the watch (radio) playlist seeded by a video.
//
// Calls GET /api/watch/{id}.
func (o *OriginService) Watch(ctx context.Context, videoID string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := o.get(ctx, models.Key(models.ContentWatch, videoID), &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Artist retrieves an artist page.
//
// Calls GET /api/artist/{id}.
func (o *OriginService) Artist(ctx context.Context, id string) (*models.ArtistPage, error) {
	var artist models.ArtistPage
	if err := o.get(ctx, models.Key(models.ContentArtist, id), &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// Search runs a catalog search.
//
// Calls GET /api/search?q=.
func (o *OriginService) Search(ctx context.Context, query string) (*models.SearchResults, error) {
	var results models.SearchResults
	if err := o.get(ctx, models.Key(models.ContentSearch, query), &results); err != nil {
		return nil, err
	}
	if results.Query == "" {
		results.Query = query
	}
	return &results, nil
}

// Home retrieves the home feed.
func (o *OriginService) Home(ctx context.Context) (*models.Feed, error) {
	return o.feed(ctx, models.Key(models.ContentHome, ""))
}

// Charts retrieves the charts feed for a country.
func (o *OriginService) Charts(ctx context.Context, country string) (*models.Feed, error) {
	return o.feed(ctx, models.Key(models.ContentCharts, country))
}

// Moods retrieves the moods feed for a country and language.
func (o *OriginService) Moods(ctx context.Context, country, lang string) (*models.Feed, error) {
	return o.feed(ctx, models.Key(models.ContentMoods, MoodsID(country, lang)))
}

func (o *OriginService) feed(ctx context.Context, key models.ContentKey) (*models.Feed, error) {
	var feed models.Feed
	if err := o.get(ctx, key, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (o *OriginService) get(ctx context.Context, key models.ContentKey, result any) error {
	endpoint, err := Endpoint(key)
	if err != nil {
		return err
	}
	if err := o.doRequest(ctx, endpoint, result); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	return nil
}

func (o *OriginService) wait(ctx context.Context) error {
	if o.limiter == nil {
		return nil
	}
	return o.limiter.Wait(ctx)
}

func (o *OriginService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := o.baseURL + endpoint

	o.logger.Debug("origin request", "url", apiURL)

	resp, err := o.retry.do(ctx, o.wait, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return o.httpClient.Do(req)
	})
	if err != nil {
		o.logger.Warn("origin request failed", "url", apiURL, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result == nil {
		return nil
	}

	if raw, ok := result.(*json.RawMessage); ok {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: failed to read response: %v", shared.ErrTransientFetch, err)
		}
		if !json.Valid(body) {
			return fmt.Errorf("%w: response is not valid JSON", shared.ErrAPIRequest)
		}
		*raw = body
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
