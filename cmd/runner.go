package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/repositories"
	"github.com/desertthunder/ytdeck/internal/services"
	"github.com/desertthunder/ytdeck/internal/shared"
	"github.com/desertthunder/ytdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The store and search clients are built on first use so commands like setup work without them.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer

	provider services.Provider
	pool     *services.CredentialPool
	search   *services.SearchClient

	store      models.PlaylistStore
	closeStore func()
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Provider   services.Provider
	Store      models.PlaylistStore
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		provider:   opts.Provider,
		store:      opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, suggestCommand, playlistCommand, playCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "ytdeck",
		Usage:    "Search YouTube, curate playlists, and queue tracks from the terminal",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

// Before loads the configuration named by --config and applies its log level.
//
// A missing file leaves the embedded defaults in place. --verbose overrides the configured level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.LoadConfig(r.configPath)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			config = shared.DefaultConfig()
		case err != nil:
			return ctx, err
		}

		if err := config.Validate(); err != nil {
			return ctx, err
		}
		r.config = config
	}

	if level, err := log.ParseLevel(r.config.Log.Level); err == nil {
		shared.SetLogLevel(r.logger, level)
	} else if r.config.Log.Level != "" {
		r.logger.Warn("ignoring unknown log level", "level", r.config.Log.Level)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// After releases the playlist store.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.closeStore != nil {
		r.closeStore()
		r.closeStore = nil
	}
	return nil
}

// SetLogger swaps the logger, as the TUI does to keep logs off the screen.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Config returns the loaded configuration, or the defaults before [Runner.Before] has run.
func (r *Runner) Config() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// Store opens the configured playlist store once.
func (r *Runner) Store(ctx context.Context) (models.PlaylistStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	config := r.Config()
	switch config.Store.Driver {
	case "redis":
		client, closeFn, err := repositories.NewRedisClient(ctx, config.Store.Redis, r.logger)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("connected to redis", "addr", config.Store.Redis.Addr)
		r.store = repositories.NewRedisPlaylistStore(client)
		r.closeStore = closeFn
	default:
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
		}
		r.logger.Debug("opened database", "path", config.Database.Path)
		r.store = repositories.NewPlaylistRepository(db)
		r.closeStore = func() {
			if err := db.Close(); err != nil {
				r.logger.Warn("failed to close database", "error", err)
			}
		}
	}
	return r.store, nil
}

// Library builds a playlist library over the store for the configured owner.
func (r *Runner) Library(ctx context.Context, opts ...tasks.LibraryOption) (*tasks.Library, error) {
	store, err := r.Store(ctx)
	if err != nil {
		return nil, err
	}
	return tasks.NewLibrary(store, r.Config().Profile.OwnerID, opts...), nil
}

// Player builds a playback queue manager rendering to surface.
func (r *Runner) Player(ctx context.Context, surface tasks.PlayerSurface) (*tasks.Player, error) {
	store, err := r.Store(ctx)
	if err != nil {
		return nil, err
	}
	config := r.Config()
	return tasks.NewPlayer(store, surface,
		tasks.WithReplaceQueue(config.Player.ReplaceQueue),
		tasks.WithHistorySize(config.Player.HistorySize),
	), nil
}

// SearchClient returns the client used for explicit searches.
//
// Suggestion clients derive from it with [services.SearchClient.With] so both share one credential pool.
func (r *Runner) SearchClient() (*services.SearchClient, error) {
	if r.search != nil {
		return r.search, nil
	}

	config := r.Config()
	pool, err := services.NewCredentialPool(config.APIKeys())
	if err != nil {
		return nil, err
	}

	provider := r.provider
	if provider == nil {
		provider = services.NewYouTubeService(config.Credentials.YouTube.BaseURL)
	}

	r.pool = pool
	r.search = services.NewSearchClient(pool, provider,
		services.WithAttemptLimit(config.Search.MaxAttempts),
		services.WithRequestTimeout(config.SearchTimeout()),
		services.WithRateLimit(config.Search.RequestsPerSecond, config.Search.Burst),
		services.WithLogger(shared.WithLogger(r.logger, "component", "search", "provider", provider.Name())),
	)
	return r.search, nil
}

// SuggestionClient returns a client with the suggestion attempt ceiling.
func (r *Runner) SuggestionClient() (*services.SearchClient, error) {
	search, err := r.SearchClient()
	if err != nil {
		return nil, err
	}
	return search.With(
		services.WithAttemptLimit(r.Config().Suggestions.MaxAttempts),
		services.WithLogger(shared.WithLogger(r.logger, "component", "suggest")),
	), nil
}

// searchOptions builds explicit search options, letting limit override the configured result count.
func (r *Runner) searchOptions(limit int) models.SearchOptions {
	c := r.Config().Search
	if limit <= 0 {
		limit = c.MaxResults
	}
	return models.SearchOptions{
		MaxResults: limit,
		Type:       "video",
		Category:   c.Category,
		Safety:     c.SafeSearch,
		Order:      c.Order,
	}
}

func (r *Runner) suggestionOptions() models.SearchOptions {
	c := r.Config().Suggestions
	return models.SearchOptions{
		MaxResults:        c.MaxResults,
		Type:              "video",
		Category:          c.Category,
		RelevanceLanguage: c.RelevanceLanguage,
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, shared.ErrExhaustedCredentials):
		return "every API key is out of quota, try again later"
	case errors.Is(err, shared.ErrMissingCredentials):
		return "no API keys configured, add credentials.youtube.api_keys to your config"
	case errors.Is(err, shared.ErrPersistence):
		return fmt.Sprintf("could not save changes, re-run the command (%v)", err)
	case errors.Is(err, shared.ErrNotFound):
		return err.Error()
	default:
		return fmt.Sprintf("application error: %v", err)
	}
}
