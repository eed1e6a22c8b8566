package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

// Library is the owner's playlist collection: a thin layer over the store plus an
// in-memory view that only changes once the store has accepted a write, except for
// AddTrack, which updates the view first and rolls back on failure.
type Library struct {
	mu      sync.Mutex
	store   models.PlaylistStore
	ownerID string
	events  chan<- Event

	playlists map[string]models.Playlist
	order     []string
}

// LibraryOption configures a [Library].
type LibraryOption func(*Library)

// WithEvents sends an [Event] for each completed mutation. Sends never block.
func WithEvents(events chan<- Event) LibraryOption {
	return func(l *Library) { l.events = events }
}

// NewLibrary creates an empty view of ownerID's playlists. Call [Library.Refresh] to load it.
func NewLibrary(store models.PlaylistStore, ownerID string, opts ...LibraryOption) *Library {
	l := &Library{store: store, ownerID: ownerID, playlists: map[string]models.Playlist{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Refresh replaces the view with the owner's playlists from the store.
func (l *Library) Refresh(ctx context.Context) error {
	playlists, err := l.store.ListByOwner(ctx, l.ownerID)
	if err != nil {
		l.sendEvent(failedEvent("", "refresh", err))
		return err
	}

	l.mu.Lock()
	l.playlists = make(map[string]models.Playlist, len(playlists))
	l.order = l.order[:0]
	for _, p := range playlists {
		l.playlists[p.ID] = p.Clone()
		l.order = append(l.order, p.ID)
	}
	l.mu.Unlock()

	l.sendEvent(refreshedEvent(len(playlists)))
	return nil
}

// Playlists returns copies of the playlists in the view, in creation order.
func (l *Library) Playlists() []models.Playlist {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Playlist, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.playlists[id].Clone())
	}
	return out
}

// Playlist returns a copy of playlist id, loading it from the store if it is not in the view.
func (l *Library) Playlist(ctx context.Context, id string) (models.Playlist, error) {
	l.mu.Lock()
	p, ok := l.playlists[id]
	l.mu.Unlock()
	if ok {
		return p.Clone(), nil
	}

	stored, err := l.store.Get(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}

	l.mu.Lock()
	if _, ok := l.playlists[id]; !ok {
		l.playlists[id] = stored.Clone()
		l.order = append(l.order, id)
	}
	p = l.playlists[id]
	l.mu.Unlock()
	return p.Clone(), nil
}

// Create stores a new playlist holding initial. Both a name and at least one track are required.
func (l *Library) Create(ctx context.Context, name string, initial []models.Track) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}
	if len(initial) == 0 {
		return models.Playlist{}, fmt.Errorf("%w: a playlist needs at least one track", shared.ErrValidation)
	}
	for _, t := range initial {
		if err := t.Validate(); err != nil {
			return models.Playlist{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	}

	created, err := l.store.Create(ctx, models.Playlist{
		OwnerID: l.ownerID,
		Name:    name,
		Tracks:  append([]models.Track(nil), initial...),
	})
	if err != nil {
		l.sendEvent(failedEvent("", "create playlist", err))
		return models.Playlist{}, err
	}

	l.mu.Lock()
	l.playlists[created.ID] = created.Clone()
	l.order = append(l.order, created.ID)
	l.mu.Unlock()

	l.sendEvent(createdEvent(*created))
	return created.Clone(), nil
}

// Rename changes the name of playlist id.
func (l *Library) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}

	if err := l.store.Rename(ctx, id, name); err != nil {
		l.sendEvent(failedEvent(id, "rename playlist", err))
		return err
	}

	l.mu.Lock()
	if p, ok := l.playlists[id]; ok {
		p.Name = name
		l.playlists[id] = p
	}
	l.mu.Unlock()

	l.sendEvent(renamedEvent(id, name))
	return nil
}

// Delete removes playlist id from the store and then from the view.
//
// A playlist the store no longer has is dropped from the view as well.
func (l *Library) Delete(ctx context.Context, id string) error {
	err := l.store.Delete(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		l.sendEvent(failedEvent(id, "delete playlist", err))
		return err
	}

	l.mu.Lock()
	l.drop(id)
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.sendEvent(deletedEvent(id))
	return nil
}

// AddTrack appends track to playlist id unless a track with the same id is already present.
//
// The view is updated before the store write and restored if the write fails.
// It reports whether the track was added.
func (l *Library) AddTrack(ctx context.Context, id string, track models.Track) (bool, error) {
	if err := track.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	if _, err := l.Playlist(ctx, id); err != nil {
		return false, err
	}

	l.mu.Lock()
	p, ok := l.playlists[id]
	if !ok {
		l.mu.Unlock()
		return false, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	if p.IndexOf(track.ID) >= 0 {
		l.mu.Unlock()
		return false, nil
	}
	p.Tracks = append(p.Clone().Tracks, track)
	l.playlists[id] = p
	l.mu.Unlock()

	stored, err := l.store.UnionTracks(ctx, id, track)
	if err != nil {
		l.rollbackAdd(id, track.ID)
		l.sendEvent(failedEvent(id, "add track", err))
		if !errors.Is(err, shared.ErrPersistence) && !errors.Is(err, shared.ErrNotFound) {
			err = fmt.Errorf("%w: %v", shared.ErrPersistence, err)
		}
		return false, err
	}

	l.mu.Lock()
	if p, ok := l.playlists[id]; ok {
		p.Tracks = append([]models.Track(nil), stored...)
		l.playlists[id] = p
	}
	l.mu.Unlock()

	l.sendEvent(trackAddedEvent(id, track))
	return true, nil
}

// RemoveTrack removes the first track with trackID and persists the remaining array.
func (l *Library) RemoveTrack(ctx context.Context, id, trackID string) error {
	p, err := l.Playlist(ctx, id)
	if err != nil {
		return err
	}

	idx := p.IndexOf(trackID)
	if idx < 0 {
		return fmt.Errorf("%w: track %s is not in playlist %s", shared.ErrNotFound, trackID, id)
	}
	removed := p.Tracks[idx]
	remaining := append(p.Tracks[:idx:idx], p.Tracks[idx+1:]...)

	if err := l.replace(ctx, id, "remove track", remaining); err != nil {
		return err
	}
	l.sendEvent(trackRemovedEvent(id, removed))
	return nil
}

// Reorder moves trackID to target within playlist id and persists the new ordering.
//
// On a store failure the view keeps its previous ordering.
func (l *Library) Reorder(ctx context.Context, id, trackID string, target int) ([]models.Track, error) {
	p, err := l.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}

	reordered, err := Reorder(p.Tracks, trackID, target)
	if err != nil {
		return nil, err
	}

	if err := l.replace(ctx, id, "reorder tracks", reordered); err != nil {
		return nil, err
	}
	l.sendEvent(reorderedEvent(id, reordered))
	return append([]models.Track(nil), reordered...), nil
}

// replace writes tracks with a whole-array replace and updates the view only on success.
func (l *Library) replace(ctx context.Context, id, op string, tracks []models.Track) error {
	if err := l.store.ReplaceTracks(ctx, id, tracks); err != nil {
		l.sendEvent(failedEvent(id, op, err))
		if !errors.Is(err, shared.ErrPersistence) && !errors.Is(err, shared.ErrNotFound) {
			err = fmt.Errorf("%w: %v", shared.ErrPersistence, err)
		}
		return err
	}

	l.mu.Lock()
	if p, ok := l.playlists[id]; ok {
		p.Tracks = append([]models.Track(nil), tracks...)
		l.playlists[id] = p
	}
	l.mu.Unlock()
	return nil
}

// rollbackAdd removes the last track with trackID from the view.
func (l *Library) rollbackAdd(id, trackID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.playlists[id]
	if !ok {
		return
	}
	for i := len(p.Tracks) - 1; i >= 0; i-- {
		if p.Tracks[i].ID == trackID {
			p.Tracks = append(p.Tracks[:i:i], p.Tracks[i+1:]...)
			break
		}
	}
	l.playlists[id] = p
}

// drop removes id from the view. Caller holds mu.
func (l *Library) drop(id string) {
	delete(l.playlists, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
}

// sendEvent sends an event through the channel without blocking.
func (l *Library) sendEvent(e Event) {
	if l.events == nil {
		return
	}
	select {
	case l.events <- e:
	default:
	}
}
