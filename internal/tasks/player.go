package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

const defaultHistorySize = 50

// PlayerSurface renders playback. It is called outside the player's lock.
type PlayerSurface interface {
	Render(current *models.Track, playing bool)
}

// Player is the playback queue manager: one current track plus an ordered pending queue.
type Player struct {
	mu      sync.Mutex
	store   models.PlaylistStore
	surface PlayerSurface

	current *models.Track
	queue   []models.Track
	playing bool
	history []models.Track

	historySize  int
	replaceQueue bool
}

// PlayerOption configures a [Player].
type PlayerOption func(*Player)

// WithReplaceQueue makes [Player.PlayPlaylist] replace the pending queue instead of appending to it.
func WithReplaceQueue(replace bool) PlayerOption {
	return func(p *Player) { p.replaceQueue = replace }
}

// WithHistorySize bounds how many skipped tracks [Player.Previous] can return to.
func WithHistorySize(n int) PlayerOption {
	return func(p *Player) {
		if n > 0 {
			p.historySize = n
		}
	}
}

// NewPlayer creates a player reading playlists from store. surface may be nil.
func NewPlayer(store models.PlaylistStore, surface PlayerSurface, opts ...PlayerOption) *Player {
	p := &Player{store: store, surface: surface, historySize: defaultHistorySize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlayNow makes track current and starts playback. The queue is untouched.
func (p *Player) PlayNow(track models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return p.mutate(func() error {
		p.setCurrent(track)
		return nil
	})
}

// PlayFrom makes track current and replaces the queue with remaining.
func (p *Player) PlayFrom(track models.Track, remaining []models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return p.mutate(func() error {
		p.setCurrent(track)
		p.queue = append([]models.Track(nil), remaining...)
		return nil
	})
}

// Enqueue appends track to the pending queue.
func (p *Player) Enqueue(track models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return p.mutate(func() error {
		p.queue = append(p.queue, track)
		return nil
	})
}

// PlayPlaylist loads playlist id from the store, plays its first track, and adds the
// rest to the queue. The rest is appended unless the player replaces its queue.
func (p *Player) PlayPlaylist(ctx context.Context, id string) error {
	playlist, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if len(playlist.Tracks) == 0 {
		return fmt.Errorf("%w: playlist %s has no tracks", shared.ErrNotFound, id)
	}

	first, rest := playlist.Tracks[0], playlist.Tracks[1:]
	return p.mutate(func() error {
		p.setCurrent(first)
		if p.replaceQueue {
			p.queue = append([]models.Track(nil), rest...)
		} else {
			p.queue = append(p.queue, rest...)
		}
		return nil
	})
}

// TogglePlayPause flips the play state. It does nothing without a current track.
func (p *Player) TogglePlayPause() {
	p.mutate(func() error {
		if p.current != nil {
			p.playing = !p.playing
		}
		return nil
	})
}

// Skip advances to the head of the queue. With an empty queue playback stops.
func (p *Player) Skip() {
	p.mutate(func() error {
		if len(p.queue) == 0 {
			p.pushHistory()
			p.current = nil
			p.playing = false
			return nil
		}

		next := p.queue[0]
		p.queue = append([]models.Track(nil), p.queue[1:]...)
		p.setCurrent(next)
		return nil
	})
}

// Previous returns to the most recently replaced track. The current track goes back to the queue head.
func (p *Player) Previous() error {
	return p.mutate(func() error {
		if len(p.history) == 0 {
			return fmt.Errorf("%w: no previous track", shared.ErrNotFound)
		}

		last := p.history[len(p.history)-1]
		p.history = p.history[:len(p.history)-1]
		if p.current != nil {
			p.queue = append([]models.Track{*p.current}, p.queue...)
		}
		p.current = &last
		p.playing = true
		return nil
	})
}

// Remove drops the queued track at index.
func (p *Player) Remove(index int) error {
	return p.mutate(func() error {
		if index < 0 || index >= len(p.queue) {
			return fmt.Errorf("%w: queue index %d out of range", shared.ErrValidation, index)
		}
		p.queue = append(p.queue[:index:index], p.queue[index+1:]...)
		return nil
	})
}

// Move moves the queued track at from to to, clamping to.
func (p *Player) Move(from, to int) error {
	return p.mutate(func() error {
		if from < 0 || from >= len(p.queue) {
			return fmt.Errorf("%w: queue index %d out of range", shared.ErrValidation, from)
		}
		p.queue = moveIndex(p.queue, from, to)
		return nil
	})
}

// Clear empties the pending queue. The current track keeps playing.
func (p *Player) Clear() {
	p.mutate(func() error {
		p.queue = nil
		return nil
	})
}

// Reset discards all playback state, as when navigating away from the player.
func (p *Player) Reset() {
	p.mutate(func() error {
		p.current = nil
		p.queue = nil
		p.history = nil
		p.playing = false
		return nil
	})
}

// State returns a snapshot of the playback state.
func (p *Player) State() models.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := models.PlaybackState{
		Queue:     append([]models.Track(nil), p.queue...),
		IsPlaying: p.playing,
	}
	if p.current != nil {
		c := *p.current
		state.Current = &c
	}
	return state
}

// setCurrent replaces the current track and starts playback. Caller holds mu.
func (p *Player) setCurrent(track models.Track) {
	p.pushHistory()
	p.current = &track
	p.playing = true
}

// pushHistory records the current track before it is replaced. Caller holds mu.
func (p *Player) pushHistory() {
	if p.current == nil {
		return
	}
	p.history = append(p.history, *p.current)
	if over := len(p.history) - p.historySize; over > 0 {
		p.history = append([]models.Track(nil), p.history[over:]...)
	}
}

// mutate runs fn under the lock and notifies the surface if the current track
// or play state changed.
func (p *Player) mutate(fn func() error) error {
	p.mu.Lock()
	before, wasPlaying := p.current, p.playing
	err := fn()
	after, playing := p.current, p.playing

	var rendered *models.Track
	if after != nil {
		c := *after
		rendered = &c
	}
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if p.surface != nil && (before != after || wasPlaying != playing) {
		p.surface.Render(rendered, playing)
	}
	return nil
}
