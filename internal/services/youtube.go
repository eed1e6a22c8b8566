// YouTube Data API v3 [Provider] implementation
//
// Only the search endpoint is used. Quotas are per key, which is what the credential pool rotates across.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

const (
	defaultYTBaseURL    string = "https://www.googleapis.com/youtube/v3"
	defaultMaxResults   int    = 25
	defaultResourceType string = "video"
)

// YouTubeImage represents a thumbnail in Data API responses.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeSnippet is the snippet part of a search result.
type YouTubeSnippet struct {
	PublishedAt  string                  `json:"publishedAt"`
	ChannelID    string                  `json:"channelId"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	ChannelTitle string                  `json:"channelTitle"`
	Thumbnails   map[string]YouTubeImage `json:"thumbnails"`
}

// YouTubeSearchItem is one entry of a search response.
type YouTubeSearchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet YouTubeSnippet `json:"snippet"`
}

// YouTubeSearchResponse is the body of GET /search.
type YouTubeSearchResponse struct {
	NextPageToken string              `json:"nextPageToken"`
	Items         []YouTubeSearchItem `json:"items"`
}

type youtubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeService implements [Provider] for the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Data API provider.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Search calls GET /search with key and maps the items to tracks.
func (y *YouTubeService) Search(ctx context.Context, key, query string, opts models.SearchOptions) ([]models.Track, error) {
	var resp YouTubeSearchResponse
	if err := y.doRequest(ctx, "/search", searchParams(key, query, opts), &resp); err != nil {
		return nil, err
	}
	return mapSearchItems(resp.Items), nil
}

func searchParams(key, query string, opts models.SearchOptions) url.Values {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	resourceType := opts.Type
	if resourceType == "" {
		resourceType = defaultResourceType
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("key", key)
	params.Set("type", resourceType)
	params.Set("q", query)

	optional := map[string]string{
		"videoCategoryId":   opts.Category,
		"relevanceLanguage": opts.RelevanceLanguage,
		"safeSearch":        opts.Safety,
		"order":             opts.Order,
	}
	for name, value := range optional {
		if value != "" {
			params.Set(name, value)
		}
	}
	return params
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: request failed: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstream, err)
	}
	return nil
}

// statusError classifies a non-2xx response. 403 and 429 are quota failures.
func statusError(resp *http.Response) error {
	kind := shared.ErrUpstream
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		kind = shared.ErrQuotaExceeded
	}

	var errResp youtubeErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Errorf("%w: youtube API error (status %d): %s", kind, resp.StatusCode, errResp.Error.Message)
	}
	return fmt.Errorf("%w: youtube API error: status %d", kind, resp.StatusCode)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// mapSearchItems converts search items to tracks, skipping results that are not videos.
func mapSearchItems(items []YouTubeSearchItem) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item.ID.VideoID == "" {
			continue
		}

		track := models.Track{
			ID:           item.ID.VideoID,
			Title:        html.UnescapeString(item.Snippet.Title),
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
			ChannelTitle: html.UnescapeString(item.Snippet.ChannelTitle),
			Description:  html.UnescapeString(item.Snippet.Description),
		}
		if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			track.PublishedAt = ts
		}
		tracks = append(tracks, track)
	}
	return tracks
}

// thumbnailURL prefers the high resolution image and falls back to the default one.
func thumbnailURL(thumbs map[string]YouTubeImage) string {
	for _, size := range []string{"high", "default"} {
		if img, ok := thumbs[size]; ok && img.URL != "" {
			return img.URL
		}
	}
	return ""
}
