package tasks

import (
	"fmt"

	"github.com/desertthunder/ytdeck/internal/models"
)

// Event reports a completed library mutation.
//
// Used to send real-time status to the CLI or UI layer for display.
type Event struct {
	Kind       EventKind // What happened
	PlaylistID string    // Playlist the event belongs to
	Message    string    // Human-readable message for display
	Data       any       // Optional kind-specific data for advanced UIs
}

// EventKind enumerates library mutations.
type EventKind int

const (
	PlaylistsRefreshed EventKind = iota
	PlaylistCreated
	PlaylistRenamed
	PlaylistDeleted
	TrackAdded
	TrackRemoved
	TracksReordered
	MutationFailed
)

func (k EventKind) String() string {
	switch k {
	case PlaylistsRefreshed:
		return "playlists_refreshed"
	case PlaylistCreated:
		return "playlist_created"
	case PlaylistRenamed:
		return "playlist_renamed"
	case PlaylistDeleted:
		return "playlist_deleted"
	case TrackAdded:
		return "track_added"
	case TrackRemoved:
		return "track_removed"
	case TracksReordered:
		return "tracks_reordered"
	case MutationFailed:
		return "mutation_failed"
	default:
		return ""
	}
}

func refreshedEvent(count int) Event {
	return Event{
		Kind:    PlaylistsRefreshed,
		Message: fmt.Sprintf("Loaded %d playlists", count),
	}
}

func createdEvent(pl models.Playlist) Event {
	return Event{
		Kind:       PlaylistCreated,
		PlaylistID: pl.ID,
		Message:    fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:       pl,
	}
}

func renamedEvent(id, name string) Event {
	return Event{
		Kind:       PlaylistRenamed,
		PlaylistID: id,
		Message:    fmt.Sprintf("Playlist renamed to %s", name),
	}
}

func deletedEvent(id string) Event {
	return Event{
		Kind:       PlaylistDeleted,
		PlaylistID: id,
		Message:    fmt.Sprintf("Playlist deleted (ID: %s)", id),
	}
}

func trackAddedEvent(id string, tr models.Track) Event {
	return Event{
		Kind:       TrackAdded,
		PlaylistID: id,
		Message:    fmt.Sprintf("Added %s", tr.Title),
		Data:       tr,
	}
}

func trackRemovedEvent(id string, tr models.Track) Event {
	return Event{
		Kind:       TrackRemoved,
		PlaylistID: id,
		Message:    fmt.Sprintf("Removed %s", tr.Title),
		Data:       tr,
	}
}

func reorderedEvent(id string, tracks []models.Track) Event {
	return Event{
		Kind:       TracksReordered,
		PlaylistID: id,
		Message:    fmt.Sprintf("Reordered %d tracks", len(tracks)),
		Data:       tracks,
	}
}

func failedEvent(id, op string, err error) Event {
	return Event{
		Kind:       MutationFailed,
		PlaylistID: id,
		Message:    fmt.Sprintf("✗ %s: %v", op, err),
		Data:       err,
	}
}
