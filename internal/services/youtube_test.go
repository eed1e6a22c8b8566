package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
	tu "github.com/desertthunder/ytdeck/internal/testing"
)

func TestYouTubeService(t *testing.T) {
	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService(""); svc == nil {
				t.Fatal("expected service to be created")
			} else if svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("trims trailing slash from custom URL", func(t *testing.T) {
			if svc := NewYouTubeService("http://localhost:9000/"); svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected trimmed baseURL, got %s", svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService(""); svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
	})

	t.Run("Search", func(t *testing.T) {
		mockResponse := map[string]any{
			"items": []map[string]any{
				{
					"id": map[string]any{"kind": "youtube#video", "videoId": "vid1"},
					"snippet": map[string]any{
						"publishedAt":  "2021-03-04T05:06:07Z",
						"title":        "Tom &amp; Jerry",
						"description":  "theme",
						"channelTitle": "Cartoons",
						"thumbnails": map[string]any{
							"default": map[string]any{"url": "http://img/default.jpg"},
							"high":    map[string]any{"url": "http://img/high.jpg"},
						},
					},
				},
				{
					"id":      map[string]any{"kind": "youtube#channel", "channelId": "chan"},
					"snippet": map[string]any{"title": "A channel"},
				},
				{
					"id": map[string]any{"kind": "youtube#video", "videoId": "vid2"},
					"snippet": map[string]any{
						"title":      "No high thumb",
						"thumbnails": map[string]any{"default": map[string]any{"url": "http://img/d2.jpg"}},
					},
				},
			},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected path /search, got %s", r.URL.Path)
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET method, got %s", r.Method)
			}

			q := r.URL.Query()
			expected := map[string]string{
				"part":              "snippet",
				"maxResults":        "5",
				"key":               "key-1",
				"type":              "video",
				"q":                 "tom and jerry",
				"videoCategoryId":   "10",
				"relevanceLanguage": "en",
				"safeSearch":        "strict",
			}
			for name, want := range expected {
				if got := q.Get(name); got != want {
					t.Errorf("expected %s=%s, got %s", name, want, got)
				}
			}
			if q.Has("order") {
				t.Error("expected order to be omitted when unset")
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(mockResponse)
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL)
		opts := models.SearchOptions{MaxResults: 5, Category: "10", RelevanceLanguage: "en", Safety: "strict"}

		tracks, err := svc.Search(context.Background(), "key-1", "tom and jerry", opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks (channel skipped), got %d", len(tracks))
		}

		first := tracks[0]
		if first.ID != "vid1" {
			t.Errorf("expected ID vid1, got %s", first.ID)
		}
		if first.Title != "Tom & Jerry" {
			t.Errorf("expected unescaped title, got %s", first.Title)
		}
		if first.ThumbnailURL != "http://img/high.jpg" {
			t.Errorf("expected high thumbnail, got %s", first.ThumbnailURL)
		}
		if first.ChannelTitle != "Cartoons" {
			t.Errorf("expected channel Cartoons, got %s", first.ChannelTitle)
		}
		if !first.PublishedAt.Equal(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)) {
			t.Errorf("unexpected publishedAt %v", first.PublishedAt)
		}

		if tracks[1].ThumbnailURL != "http://img/d2.jpg" {
			t.Errorf("expected default thumbnail fallback, got %s", tracks[1].ThumbnailURL)
		}
		if !tracks[1].PublishedAt.IsZero() {
			t.Errorf("expected zero publishedAt, got %v", tracks[1].PublishedAt)
		}
	})

	t.Run("defaults maxResults and type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("maxResults") != "25" {
				t.Errorf("expected default maxResults 25, got %s", q.Get("maxResults"))
			}
			if q.Get("type") != "video" {
				t.Errorf("expected default type video, got %s", q.Get("type"))
			}
			if q.Get("order") != "date" {
				t.Errorf("expected order date, got %s", q.Get("order"))
			}
			w.Write([]byte(`{"items":[]}`))
		}))
		defer server.Close()

		tracks, err := NewYouTubeService(server.URL).Search(context.Background(), "k", "q", models.SearchOptions{Order: "date"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 0 {
			t.Errorf("expected no tracks, got %d", len(tracks))
		}
	})

	t.Run("error classification", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			body   string
			want   error
			msg    string
		}{
			{name: "forbidden is quota", status: http.StatusForbidden, body: `{"error":{"code":403,"message":"quotaExceeded"}}`, want: shared.ErrQuotaExceeded, msg: "quotaExceeded"},
			{name: "too many requests is quota", status: http.StatusTooManyRequests, body: ``, want: shared.ErrQuotaExceeded},
			{name: "bad request is upstream", status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"bad q"}}`, want: shared.ErrUpstream, msg: "bad q"},
			{name: "server error is upstream", status: http.StatusInternalServerError, body: `oops`, want: shared.ErrUpstream},
			{name: "undecodable body is upstream", status: http.StatusOK, body: `{not json`, want: shared.ErrUpstream},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				_, err := NewYouTubeService(server.URL).Search(context.Background(), "k", "q", models.SearchOptions{})
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
					t.Errorf("expected error to contain %q, got %v", tt.msg, err)
				}
			})
		}
	})

	t.Run("transport failure is upstream", func(t *testing.T) {
		svc := NewYouTubeService("http://example.invalid")
		svc.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		_, err := svc.Search(context.Background(), "k", "q", models.SearchOptions{})
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("body read failure is upstream", func(t *testing.T) {
		svc := NewYouTubeService("http://example.invalid")
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		svc.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		_, err := svc.Search(context.Background(), "k", "q", models.SearchOptions{})
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("deadline is timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := NewYouTubeService(server.URL).Search(ctx, "k", "q", models.SearchOptions{})
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("works behind the search client", func(t *testing.T) {
		var keys []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keys = append(keys, r.URL.Query().Get("key"))
			if r.URL.Query().Get("key") == "spent" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Write([]byte(`{"items":[{"id":{"videoId":"v"},"snippet":{"title":"t"}}]}`))
		}))
		defer server.Close()

		pool, _ := NewCredentialPool([]string{"spent", "fresh"})
		client := NewSearchClient(pool, NewYouTubeService(server.URL))

		tracks, err := client.Search(context.Background(), "q", models.SearchOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 {
			t.Errorf("expected one track, got %d", len(tracks))
		}
		if len(keys) != 2 || keys[1] != "fresh" {
			t.Errorf("expected rotation to fresh key, got %v", keys)
		}
	})
}
