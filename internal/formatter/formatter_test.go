package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
	th "github.com/desertthunder/ytdeck/internal/testing"
)

func samplePlaylist() models.Playlist {
	return models.Playlist{
		ID:        "pl-1",
		OwnerID:   "me",
		Name:      "Test Playlist",
		UpdatedAt: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		Tracks: []models.Track{
			{
				ID:           "vid1",
				Title:        "Song One",
				ChannelTitle: "Channel One",
				ThumbnailURL: "http://img/1.jpg",
				PublishedAt:  time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC),
			},
			{
				ID:    "vid2",
				Title: "Song, Two",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(samplePlaylist().Tracks)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Position,ID,Title,Channel,Published,URL" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}
		if records[1][1] != "vid1" || records[1][4] != "2020-05-06" {
			t.Errorf("unexpected first row %v", records[1])
		}
		if records[2][2] != "Song, Two" {
			t.Errorf("expected quoted title to round trip, got %q", records[2][2])
		}
		if records[2][5] != "https://www.youtube.com/watch?v=vid2" {
			t.Errorf("unexpected url %q", records[2][5])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Test Playlist",
			"![Cover](http://img/1.jpg)",
			"**Tracks**: 2",
			"**Updated**: 2025-02-03",
			"1. [Song One](https://www.youtube.com/watch?v=vid1) (Channel One)",
			"2. [Song, Two](https://www.youtube.com/watch?v=vid2)\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown without cover", func(t *testing.T) {
		data, _ := ExportToMarkdown(models.Playlist{Name: "Empty"})
		if strings.Contains(string(data), "Cover") {
			t.Error("expected no cover for an empty playlist")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("text missing playlist name, got: %s", output)
		}
		if !strings.Contains(output, "1. Song One - Channel One [vid1]") {
			t.Errorf("text missing first track, got: %s", output)
		}
		if !strings.Contains(output, "2. Song, Two [vid2]") {
			t.Errorf("text missing second track, got: %s", output)
		}
	})

	t.Run("PlaylistsToText", func(t *testing.T) {
		output := string(PlaylistsToText([]models.Playlist{samplePlaylist()}))
		if output != "pl-1  Test Playlist (2 tracks)\n" {
			t.Errorf("unexpected summary %q", output)
		}
	})
}

func TestFormat(t *testing.T) {
	p := samplePlaylist()

	t.Run("json", func(t *testing.T) {
		data, err := Format(p, "json")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		var decoded models.Playlist
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Name != p.Name || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected decoded playlist %+v", decoded)
		}
	})

	t.Run("aliases", func(t *testing.T) {
		for _, f := range []string{"", "txt", "TEXT", "md", "csv"} {
			if _, err := Format(p, f); err != nil {
				t.Errorf("Format(%q) failed: %v", f, err)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Format(p, "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	p := samplePlaylist()
	dir := t.TempDir()

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(dir, "out.md")
		written, err := WriteExport(p, "markdown", path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "# Test Playlist") {
			t.Error("expected markdown content")
		}
	})

	t.Run("default path uses id and extension", func(t *testing.T) {
		t.Chdir(dir)
		written, err := WriteExport(p, "csv", "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != "pl-1.csv" {
			t.Errorf("expected pl-1.csv, got %s", written)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		if _, err := WriteExport(p, "text", filepath.Join(dir, "missing", "out.txt")); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
