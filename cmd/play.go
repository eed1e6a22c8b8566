package main

import (
	"context"
	"fmt"
	"io"

	"github.com/desertthunder/ytdeck/internal/formatter"
	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/urfave/cli/v3"
)

// lineSurface prints each playback change as a line.
type lineSurface struct {
	w io.Writer
}

func (s lineSurface) Render(current *models.Track, playing bool) {
	switch {
	case current == nil:
		fmt.Fprintln(s.w, "■ stopped")
	case playing:
		fmt.Fprintf(s.w, "▶ %s  %s\n", current.Title, formatter.WatchURL(current.ID))
	default:
		fmt.Fprintf(s.w, "⏸ %s\n", current.Title)
	}
}

// Play loads a playlist into a fresh queue and prints the resulting playback state.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "playlist-id")
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	var surface lineSurface
	if !useJSON {
		surface.w = r.output
	} else {
		surface.w = io.Discard
	}

	player, err := r.Player(ctx, surface)
	if err != nil {
		return err
	}
	if err := player.PlayPlaylist(ctx, id); err != nil {
		return err
	}

	state := player.State()
	if useJSON {
		return r.writeJSON(state, cmd.Bool("pretty"))
	}
	if len(state.Queue) == 0 {
		return r.writePlain("Nothing queued\n")
	}
	r.writePlain("Up next:\n")
	return r.writeBytes(formatter.TracksToText(state.Queue))
}
