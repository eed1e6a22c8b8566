package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytdeck/internal/formatter"
	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
	"github.com/desertthunder/ytdeck/internal/suggest"
	"github.com/urfave/cli/v3"
)

const awaitPollInterval = 250 * time.Millisecond

// Search runs an explicit search and prints the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	client, err := r.SearchClient()
	if err != nil {
		return err
	}

	r.logger.Info("searching youtube", "query", query)
	tracks, err := client.Search(ctx, query, r.searchOptions(cmd.Int("limit")))
	if err != nil {
		return err
	}
	r.logger.Debug("search finished", "results", len(tracks), "cursor", r.pool.Cursor())

	return r.writeTracks(tracks, cmd.Bool("json"), cmd.Bool("pretty"))
}

// Suggest sends query through the suggestion pipeline and prints the resolved suggestions.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	client, err := r.SuggestionClient()
	if err != nil {
		return err
	}

	config := r.Config().Suggestions
	pipeline, err := suggest.New(client, suggest.Config{
		Debounce:  r.Config().DebounceInterval(),
		Keyword:   config.Keyword,
		Options:   r.suggestionOptions(),
		CacheSize: config.CacheSize,
	}, shared.WithLogger(r.logger, "component", "suggest"))
	if err != nil {
		return err
	}
	defer pipeline.Shutdown()

	pipeline.Voice(query)
	session, err := awaitSuggestions(ctx, pipeline)
	if err != nil {
		return err
	}
	if session.State == models.SessionFailed {
		r.writePlain("No suggestions for %q\n", query)
		return nil
	}

	return r.writeTracks(session.Suggestions, cmd.Bool("json"), cmd.Bool("pretty"))
}

// awaitSuggestions blocks until the latest request resolves or fails.
//
// The session is also polled so a dropped update cannot stall the wait.
func awaitSuggestions(ctx context.Context, p *suggest.Pipeline) (models.SearchSession, error) {
	ticker := time.NewTicker(awaitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.SearchSession{}, fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
		case u := <-p.Updates():
			if u.RequestID != u.Session.RequestID {
				continue
			}
			switch u.State {
			case models.SessionResolved, models.SessionFailed:
				return u.Session, nil
			}
		case <-ticker.C:
			switch session := p.Session(); session.State {
			case models.SessionResolved, models.SessionFailed:
				return session, nil
			}
		}
	}
}

func (r *Runner) writeTracks(tracks []models.Track, useJSON, pretty bool) error {
	if useJSON {
		return r.writeJSON(tracks, pretty)
	}
	if len(tracks) == 0 {
		return r.writePlain("No results\n")
	}
	return r.writeBytes(formatter.TracksToText(tracks))
}
