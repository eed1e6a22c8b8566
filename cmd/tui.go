package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytdeck/internal/shared"
	"github.com/desertthunder/ytdeck/internal/suggest"
	"github.com/desertthunder/ytdeck/internal/tasks"
	"github.com/desertthunder/ytdeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for search and playback.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config := r.Config()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closeLog, err := shared.NewFileLogger(config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closeLog()
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	client, err := r.SuggestionClient()
	if err != nil {
		return err
	}
	pipeline, err := suggest.New(client, suggest.Config{
		Debounce:  config.DebounceInterval(),
		Keyword:   config.Suggestions.Keyword,
		Options:   r.suggestionOptions(),
		CacheSize: config.Suggestions.CacheSize,
	}, shared.WithLogger(fileLogger, "component", "suggest"))
	if err != nil {
		return err
	}
	defer pipeline.Shutdown()

	surface := ui.NewSurface()
	player, err := r.Player(ctx, surface)
	if err != nil {
		return err
	}

	events := make(chan tasks.Event, 16)
	library, err := r.Library(ctx, tasks.WithEvents(events))
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, pipeline, player, library,
		ui.WithSurface(surface),
		ui.WithEvents(events),
		ui.WithTargetPlaylist(cmd.String("playlist")),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
