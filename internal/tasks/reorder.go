package tasks

import (
	"fmt"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

// Reorder moves the first track with trackID to target and returns the new ordering.
//
// target is clamped to [0, len(tracks)-1]. The input slice is not modified.
//
//	Reorder([A B C], "A", 2) => [B C A]
//	Reorder([A B C], "C", 0) => [C A B]
func Reorder(tracks []models.Track, trackID string, target int) ([]models.Track, error) {
	from := -1
	for i, t := range tracks {
		if t.ID == trackID {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, fmt.Errorf("%w: track %s is not in the playlist", shared.ErrNotFound, trackID)
	}
	return moveIndex(tracks, from, target), nil
}

// moveIndex returns a copy of tracks with the element at from moved to to.
// from must be a valid index; to is clamped.
func moveIndex(tracks []models.Track, from, to int) []models.Track {
	to = max(0, min(to, len(tracks)-1))

	moved := tracks[from]
	out := make([]models.Track, 0, len(tracks))
	out = append(out, tracks[:from]...)
	out = append(out, tracks[from+1:]...)

	out = append(out, models.Track{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}
