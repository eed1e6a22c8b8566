package tasks

import (
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/ytdeck/internal/shared"
	tu "github.com/desertthunder/ytdeck/internal/testing"
)

func TestReorder(t *testing.T) {
	tc := []struct {
		name    string
		tracks  []string
		trackID string
		target  int
		want    []string
	}{
		{name: "first to last", tracks: []string{"A", "B", "C"}, trackID: "A", target: 2, want: []string{"B", "C", "A"}},
		{name: "last to first", tracks: []string{"A", "B", "C"}, trackID: "C", target: 0, want: []string{"C", "A", "B"}},
		{name: "middle forward", tracks: []string{"A", "B", "C", "D"}, trackID: "B", target: 2, want: []string{"A", "C", "B", "D"}},
		{name: "same position", tracks: []string{"A", "B", "C"}, trackID: "B", target: 1, want: []string{"A", "B", "C"}},
		{name: "target clamped high", tracks: []string{"A", "B", "C"}, trackID: "A", target: 99, want: []string{"B", "C", "A"}},
		{name: "target clamped low", tracks: []string{"A", "B", "C"}, trackID: "C", target: -4, want: []string{"C", "A", "B"}},
		{name: "single track", tracks: []string{"A"}, trackID: "A", target: 3, want: []string{"A"}},
		{name: "first duplicate moves", tracks: []string{"A", "B", "A"}, trackID: "A", target: 1, want: []string{"B", "A", "A"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			input := tu.Tracks(tt.tracks...)
			got, err := Reorder(input, tt.trackID, tt.target)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ids := tu.TrackIDs(got); !slices.Equal(ids, tt.want) {
				t.Errorf("Reorder() = %v, want %v", ids, tt.want)
			}
			if ids := tu.TrackIDs(input); !slices.Equal(ids, tt.tracks) {
				t.Errorf("input was modified: %v", ids)
			}
		})
	}

	t.Run("missing track", func(t *testing.T) {
		_, err := Reorder(tu.Tracks("A", "B"), "Z", 0)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
