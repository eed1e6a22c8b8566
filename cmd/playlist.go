package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/ytdeck/internal/formatter"
	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistList lists the owner's playlists in stored order.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	if err := library.Refresh(ctx); err != nil {
		return err
	}

	playlists := library.Playlists()
	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	if len(playlists) == 0 {
		return r.writePlain("No playlists yet. Create one with 'ytdeck playlist create <name> --query <song>'\n")
	}
	return r.writeBytes(formatter.PlaylistsToText(playlists))
}

// PlaylistShow renders one playlist in --format, to stdout or --output.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	playlist, err := library.Playlist(ctx, id)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(playlist, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("playlist exported", "id", id, "path", path)
		return r.writePlain("✓ Exported %s to %s\n", playlist.Name, path)
	}

	data, err := formatter.Format(playlist, format)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// PlaylistCreate creates a playlist seeded with --track and --query tracks.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	tracks, err := r.resolveTracks(ctx, cmd)
	if err != nil {
		return err
	}

	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	playlist, err := library.Create(ctx, name, tracks)
	if err != nil {
		return err
	}

	r.logger.Info("playlist created", "id", playlist.ID, "name", playlist.Name, "tracks", len(playlist.Tracks))
	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Playlist created successfully\n")
	r.writePlain("Name: %s\n", playlist.Name)
	r.writePlain("ID: %s\n", playlist.ID)
	r.writePlain("Tracks: %d\n", len(playlist.Tracks))
	return nil
}

// PlaylistRename renames a playlist.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	if err := library.Rename(ctx, id, name); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed %s to %s\n", id, name)
}

// PlaylistDelete deletes a playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	if err := library.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// PlaylistAdd adds each resolved track, reporting the ones already present.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	tracks, err := r.resolveTracks(ctx, cmd)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: at least one --track or --query is required", shared.ErrMissingArgument)
	}

	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	for _, track := range tracks {
		added, err := library.AddTrack(ctx, id, track)
		if err != nil {
			return err
		}
		if added {
			r.writePlain("✓ Added %s [%s]\n", track.Title, track.ID)
		} else {
			r.writePlain("• %s [%s] is already in the playlist\n", track.Title, track.ID)
		}
	}
	return nil
}

// PlaylistRemove removes the first track with track-id.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track-id")
	if err != nil {
		return err
	}

	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	if err := library.RemoveTrack(ctx, id, trackID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from %s\n", trackID, id)
}

// PlaylistMove moves a track to position and prints the new order.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track-id")
	if err != nil {
		return err
	}
	raw, err := requireArg(cmd, "position")
	if err != nil {
		return err
	}
	position, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: position %q is not a number", shared.ErrInvalidArgument, raw)
	}

	library, err := r.Library(ctx)
	if err != nil {
		return err
	}
	tracks, err := library.Reorder(ctx, id, trackID, position)
	if err != nil {
		return err
	}
	return r.writeBytes(formatter.TracksToText(tracks))
}

// resolveTracks turns --track ids and --query searches into tracks, in flag order.
func (r *Runner) resolveTracks(ctx context.Context, cmd *cli.Command) ([]models.Track, error) {
	var tracks []models.Track
	for _, id := range cmd.StringSlice("track") {
		if id = strings.TrimSpace(id); id != "" {
			tracks = append(tracks, models.Track{ID: id, Title: id})
		}
	}

	queries := cmd.StringSlice("query")
	if len(queries) == 0 {
		return tracks, nil
	}

	client, err := r.SearchClient()
	if err != nil {
		return nil, err
	}
	for _, q := range queries {
		results, err := client.Search(ctx, q, r.searchOptions(1))
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("%w: no results for %q", shared.ErrNotFound, q)
		}
		r.logger.Debug("resolved query", "query", q, "id", results[0].ID)
		tracks = append(tracks, results[0])
	}
	return tracks, nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, name)
	}
	return v, nil
}
