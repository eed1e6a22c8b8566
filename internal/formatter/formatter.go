// package formatter renders playlists and search results to CSV, Markdown, JSON, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Supported output formats
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists the values accepted by [Format].
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// WatchURL returns the public watch page for a video id.
func WatchURL(id string) string {
	return watchURLPrefix + id
}

// Format renders a playlist in the named format.
func Format(p models.Playlist, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ExportToText(p)
	case FormatMarkdown, "md":
		return ExportToMarkdown(p)
	case FormatCSV:
		return ExportToCSV(p.Tracks)
	case FormatJSON:
		return shared.MarshalJSON(p, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// ExportToCSV converts tracks to CSV with columns: Position, ID, Title, Channel, Published, URL
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Channel", "Published", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Title,
			track.ChannelTitle,
			publishedDate(track.PublishedAt),
			WatchURL(track.ID),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown, using the first track's thumbnail as the cover
func ExportToMarkdown(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if len(p.Tracks) > 0 && p.Tracks[0].ThumbnailURL != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", p.Tracks[0].ThumbnailURL)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(p.Tracks))
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Updated**: %s\n", p.UpdatedAt.Format(time.DateOnly))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range p.Tracks {
		channelPart := ""
		if track.ChannelTitle != "" {
			channelPart = fmt.Sprintf(" (%s)", track.ChannelTitle)
		}
		fmt.Fprintf(&buf, "%d. [%s](%s)%s\n", i+1, track.Title, WatchURL(track.ID), channelPart)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	if p.ID != "" {
		fmt.Fprintf(&buf, "ID: %s\n", p.ID)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(p.Tracks))

	buf.Write(TracksToText(p.Tracks))
	return buf.Bytes(), nil
}

// TracksToText lists tracks one per line as "n. Title - Channel [id]"
func TracksToText(tracks []models.Track) []byte {
	var buf bytes.Buffer
	for i, track := range tracks {
		if track.ChannelTitle != "" {
			fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, track.Title, track.ChannelTitle, track.ID)
		} else {
			fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, track.Title, track.ID)
		}
	}
	return buf.Bytes()
}

// PlaylistsToText summarises playlists one per line
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer
	for _, p := range playlists {
		fmt.Fprintf(&buf, "%s  %s (%d tracks)\n", p.ID, p.Name, len(p.Tracks))
	}
	return buf.Bytes()
}

// WriteExport renders p in format and writes it to path.
//
// Defaults to {playlist.ID}.{ext} as the filename.
func WriteExport(p models.Playlist, format, path string) (string, error) {
	data, err := Format(p, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = p.ID + "." + extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return "md"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

func publishedDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
