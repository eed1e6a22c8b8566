// package models defines the data model for the ytdeck client
package models

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PlaylistCollection is the name of the store collection holding playlists.
const PlaylistCollection = "playlists"

// Track is a single playable item returned by search.
type Track struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ChannelTitle string    `json:"channelTitle"`
	Description  string    `json:"description,omitempty"`
	PublishedAt  time.Time `json:"publishedAt,omitzero"`
}

// Validate checks that the track can be queued or stored.
func (t Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("track id is required")
	}
	return nil
}

// Playlist is a persisted, named, ordered collection of tracks.
//
// Duplicate track ids are allowed by the data model; deduplication happens at add time.
type Playlist struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Tracks    []Track   `json:"tracks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the fields required before a playlist is written.
func (p Playlist) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("playlist name is required")
	}
	if p.OwnerID == "" {
		return fmt.Errorf("playlist owner is required")
	}
	return nil
}

// IndexOf returns the position of the first track with id, or -1.
func (p Playlist) IndexOf(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of the playlist whose track slice does not alias p's.
func (p Playlist) Clone() Playlist {
	p.Tracks = append([]Track(nil), p.Tracks...)
	return p
}

// PlaybackState is the transient now-playing view.
type PlaybackState struct {
	Current   *Track  `json:"current"`
	Queue     []Track `json:"queue"`
	IsPlaying bool    `json:"isPlaying"`
}

// SessionState is the lifecycle of one suggestion request.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionDebouncing
	SessionFetching
	SessionResolved
	SessionStale
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionDebouncing:
		return "debouncing"
	case SessionFetching:
		return "fetching"
	case SessionResolved:
		return "resolved"
	case SessionStale:
		return "stale"
	case SessionFailed:
		return "failed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// SearchSession is the typeahead state of a search box.
type SearchSession struct {
	Query       string       `json:"query"`
	RequestID   uint64       `json:"requestId"`
	Suggestions []Track      `json:"suggestions"`
	State       SessionState `json:"state"`
	Visible     bool         `json:"visible"`
}

// SearchOptions tunes a single upstream search.
type SearchOptions struct {
	MaxResults        int
	Type              string
	Category          string
	RelevanceLanguage string
	Safety            string
	Order             string
}

// PlaylistStore is a document store keyed by playlist id.
//
// Implementations must make ReplaceTracks and UnionTracks atomic at the document level.
type PlaylistStore interface {
	// Get returns the playlist or an error wrapping shared.ErrNotFound.
	Get(ctx context.Context, id string) (*Playlist, error)
	// ListByOwner returns the owner's playlists in creation order.
	ListByOwner(ctx context.Context, ownerID string) ([]Playlist, error)
	// Create assigns an id and timestamps and stores the document.
	Create(ctx context.Context, p Playlist) (*Playlist, error)
	// Rename updates the playlist name.
	Rename(ctx context.Context, id, name string) error
	// ReplaceTracks overwrites the whole track array.
	ReplaceTracks(ctx context.Context, id string, tracks []Track) error
	// UnionTracks appends tracks whose id is absent and returns the stored array.
	UnionTracks(ctx context.Context, id string, tracks ...Track) ([]Track, error)
	// Delete removes the document.
	Delete(ctx context.Context, id string) error
}
