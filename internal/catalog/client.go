// Catalog service client.
//
// Talks to the HTTP service that resolves track sources, serves
// recommendations and trending pools, and records listening telemetry.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

var (
	ErrAPIRequest = errors.New("catalog API request failed")
	ErrNotFound   = errors.New("catalog: not found")
)

const defaultTimeout = 10 * time.Second

// Client implements source.Resolver, source.Recommender and source.Telemetry
// over the catalog REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

var (
	_ source.Resolver    = (*Client)(nil)
	_ source.Recommender = (*Client)(nil)
	_ source.Telemetry   = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRateLimit caps requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a catalog client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// trackJSON is the wire form of a track.
type trackJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	DurationSec int    `json:"duration_seconds"`
	ProviderID  string `json:"provider_id,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

func (t trackJSON) toTrack() playlist.Track {
	return playlist.Track{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		Duration:   time.Duration(t.DurationSec) * time.Second,
		ProviderID: t.ProviderID,
		Thumbnail:  t.Thumbnail,
	}
}

type sourceJSON struct {
	Kind       string `json:"kind"` // "direct" or "embedded"
	URL        string `json:"url,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
	EmbedRef   string `json:"embed_ref,omitempty"`
}

// Resolve calls GET /tracks/{id}/source.
func (c *Client) Resolve(ctx context.Context, trackID string) (source.Descriptor, error) {
	var resp sourceJSON
	endpoint := "/tracks/" + url.PathEscape(trackID) + "/source"
	if _, err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return source.Descriptor{}, err
	}

	var d source.Descriptor
	switch resp.Kind {
	case "direct":
		d = source.Direct(resp.URL)
	case "embedded":
		d = source.Embedded(resp.ProviderID, resp.EmbedRef)
	default:
		return source.Descriptor{}, fmt.Errorf("%w: unknown kind %q", source.ErrInvalidDescriptor, resp.Kind)
	}
	if err := d.Validate(); err != nil {
		return source.Descriptor{}, err
	}
	return d, nil
}

// Recommend calls POST /recommendations/next. A 204 response means no recommendation.
func (c *Client) Recommend(
	ctx context.Context,
	trackID, sessionID string,
	history []string,
) (source.Recommendation, bool, error) {
	body := struct {
		TrackID   string   `json:"track_id"`
		SessionID string   `json:"session_id"`
		History   []string `json:"history"`
	}{trackID, sessionID, history}
	if body.History == nil {
		body.History = []string{}
	}

	var resp struct {
		Track     *trackJSON `json:"track"`
		SessionID string     `json:"session_id"`
	}
	status, err := c.doRequest(ctx, http.MethodPost, "/recommendations/next", body, &resp)
	if err != nil {
		return source.Recommendation{}, false, err
	}
	if status == http.StatusNoContent || resp.Track == nil || resp.Track.ID == "" {
		return source.Recommendation{}, false, nil
	}
	sid := resp.SessionID
	if sid == "" {
		sid = sessionID
	}
	return source.Recommendation{Track: resp.Track.toTrack(), SessionID: sid}, true, nil
}

// Trending calls GET /tracks/trending?limit=N.
func (c *Client) Trending(ctx context.Context, limit int) ([]playlist.Track, error) {
	endpoint := "/tracks/trending?limit=" + strconv.Itoa(limit)
	var resp []trackJSON
	if _, err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	tracks := make([]playlist.Track, 0, len(resp))
	for _, t := range resp {
		if t.ID == "" {
			continue
		}
		tracks = append(tracks, t.toTrack())
	}
	return tracks, nil
}

// RecordTransition calls POST /transitions.
func (c *Client) RecordTransition(
	ctx context.Context,
	fromID, toID, sessionID string,
	src source.TransitionSource,
) error {
	body := struct {
		From      string `json:"from"`
		To        string `json:"to"`
		SessionID string `json:"session_id"`
		Source    string `json:"source"`
	}{fromID, toID, sessionID, string(src)}
	_, err := c.doRequest(ctx, http.MethodPost, "/transitions", body, nil)
	return err
}

// ReportPlayStarted calls POST /plays.
func (c *Client) ReportPlayStarted(ctx context.Context, track playlist.Track, durationHint time.Duration) error {
	body := struct {
		TrackID     string `json:"track_id"`
		DurationSec int    `json:"duration_seconds"`
	}{track.ID, int(durationHint / time.Second)}
	_, err := c.doRequest(ctx, http.MethodPost, "/plays", body, nil)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return resp.StatusCode, fmt.Errorf("%w (status %d): %s", ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrAPIRequest, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
