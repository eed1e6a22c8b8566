package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
	tu "github.com/desertthunder/ytdeck/internal/testing"
)

// fakeProvider answers every query with tracks, or fails with err.
type fakeProvider struct {
	mu      sync.Mutex
	tracks  []models.Track
	err     error
	queries []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Search(ctx context.Context, key, query string, opts models.SearchOptions) ([]models.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	if p.err != nil {
		return nil, p.err
	}
	return p.tracks, nil
}

type harness struct {
	runner   *Runner
	output   *bytes.Buffer
	store    *tu.MemoryStore
	provider *fakeProvider
}

func newHarness(t *testing.T) harness {
	t.Helper()
	output := &bytes.Buffer{}
	store := tu.NewMemoryStore()
	provider := &fakeProvider{tracks: tu.Tracks("v1", "v2")}

	config := shared.DefaultConfig()
	config.Credentials.YouTube.APIKeys = []string{"key-a", "key-b"}
	config.Profile.OwnerID = "me"

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Logger:   log.New(&bytes.Buffer{}),
		Output:   output,
		Provider: provider,
		Store:    store,
	})
	return harness{runner: runner, output: output, store: store, provider: provider}
}

func (h harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.output.Reset()
	return h.runner.app().Run(context.Background(), append([]string{"ytdeck"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			store := tu.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Store:  store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("Config falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.Config() == nil {
				t.Error("expected default config")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "search", "suggest", "playlist", "play", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestBefore(t *testing.T) {
	t.Run("missing config file uses defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: log.New(&bytes.Buffer{})})
		path := filepath.Join(t.TempDir(), "none.toml")

		if err := runner.app().Run(context.Background(), []string{"ytdeck", "--config", path, "setup", "config"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.config == nil || runner.config.Store.Driver != "sqlite" {
			t.Error("expected default config to be loaded")
		}
		tu.AssertFileExists(t, path)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[store]\ndriver = \"mongo\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: log.New(&bytes.Buffer{})})
		err := runner.app().Run(context.Background(), []string{"ytdeck", "--config", path, "playlist", "list"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("configured log level applies to every command", func(t *testing.T) {
		h := newHarness(t)
		h.runner.config.Log.Level = "warn"
		if err := h.run(t, "playlist", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", h.runner.logger.GetLevel())
		}
	})

	t.Run("configured log level is loaded from file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		body := fmt.Sprintf("[database]\npath = %q\n\n[log]\nlevel = \"error\"\n", filepath.Join(dir, "ytdeck.db"))
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: log.New(&bytes.Buffer{})})
		if err := runner.app().Run(context.Background(), []string{"ytdeck", "--config", path, "setup", "database"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.logger.GetLevel() != log.ErrorLevel {
			t.Errorf("expected error level, got %v", runner.logger.GetLevel())
		}
	})

	t.Run("verbose overrides the configured level", func(t *testing.T) {
		h := newHarness(t)
		h.runner.config.Log.Level = "error"
		if err := h.run(t, "--verbose", "playlist", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", h.runner.logger.GetLevel())
		}
	})

	t.Run("verbose enables debug logging", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "--verbose", "playlist", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", h.runner.logger.GetLevel())
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	h := newHarness(t)
	h.runner.config.Database.Path = filepath.Join(t.TempDir(), "ytdeck.db")

	if err := h.run(t, "setup", "database"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tu.AssertFileExists(t, h.runner.config.Database.Path)
	if !strings.Contains(h.output.String(), "Database ready") {
		t.Errorf("unexpected output %q", h.output.String())
	}
}

func TestSearchCommands(t *testing.T) {
	t.Run("search prints results", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "search", "daft punk"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "1. v1 [v1]") {
			t.Errorf("unexpected output %q", h.output.String())
		}
		if h.provider.queries[0] != "daft punk" {
			t.Errorf("expected raw query, got %q", h.provider.queries[0])
		}
	})

	t.Run("search as JSON", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "search", "--json", "daft punk"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var tracks []models.Track
		if err := json.Unmarshal(h.output.Bytes(), &tracks); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
	})

	t.Run("search requires a query", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("quota exhaustion", func(t *testing.T) {
		h := newHarness(t)
		h.provider.err = fmt.Errorf("%w: quota", shared.ErrQuotaExceeded)
		h.runner.config.Search.MaxAttempts = 3

		err := h.run(t, "search", "daft punk")
		if !errors.Is(err, shared.ErrExhaustedCredentials) {
			t.Fatalf("expected ErrExhaustedCredentials, got %v", err)
		}
		if len(h.provider.queries) != 3 {
			t.Errorf("expected 3 attempts, got %d", len(h.provider.queries))
		}
		if !strings.Contains(describe(err), "try again later") {
			t.Errorf("unexpected message %q", describe(err))
		}
	})

	t.Run("suggest appends the keyword", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "suggest", "daft punk"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.provider.queries[0] != "daft punk song" {
			t.Errorf("expected keyword to be appended, got %q", h.provider.queries[0])
		}
		if !strings.Contains(h.output.String(), "v2") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("suggest swallows failures", func(t *testing.T) {
		h := newHarness(t)
		h.provider.err = fmt.Errorf("%w: boom", shared.ErrUpstream)
		if err := h.run(t, "suggest", "daft punk"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "No suggestions") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	h := newHarness(t)

	t.Run("create requires a track", func(t *testing.T) {
		err := h.run(t, "playlist", "create", "Empty")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if calls := h.store.Calls("Create"); calls != 0 {
			t.Errorf("expected no store write, got %d", calls)
		}
	})

	t.Run("create from ids and a query", func(t *testing.T) {
		if err := h.run(t, "playlist", "create", "--track", "a", "--track", "b", "--query", "daft punk", "Mix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "ID: pl-1") || !strings.Contains(h.output.String(), "Tracks: 3") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("list", func(t *testing.T) {
		if err := h.run(t, "playlist", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "pl-1  Mix (3 tracks)") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("add skips duplicates", func(t *testing.T) {
		if err := h.run(t, "playlist", "add", "--track", "a", "--track", "c", "pl-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "a [a] is already in the playlist") || !strings.Contains(out, "✓ Added c [c]") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("move clamps the position", func(t *testing.T) {
		if err := h.run(t, "playlist", "move", "pl-1", "c", "0"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(h.output.String(), "1. c [c]") {
			t.Errorf("expected c first, got %q", h.output.String())
		}

		if err := h.run(t, "playlist", "move", "pl-1", "c", "99"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "4. c [c]") {
			t.Errorf("expected c last, got %q", h.output.String())
		}
	})

	t.Run("move rejects a bad position", func(t *testing.T) {
		err := h.run(t, "playlist", "move", "pl-1", "c", "first")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("show as csv", func(t *testing.T) {
		if err := h.run(t, "playlist", "show", "--format", "csv", "pl-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(h.output.String(), "Position,ID,Title") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("show to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mix.md")
		if err := h.run(t, "playlist", "show", "--format", "markdown", "--output", path, "pl-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "# Mix") {
			t.Error("expected markdown export")
		}
	})

	t.Run("play loads the playlist", func(t *testing.T) {
		if err := h.run(t, "play", "pl-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "▶ a") || !strings.Contains(out, "Up next:") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("rename and remove", func(t *testing.T) {
		if err := h.run(t, "playlist", "rename", "pl-1", "Evening"); err != nil {
			t.Fatalf("rename failed: %v", err)
		}
		if err := h.run(t, "playlist", "remove", "pl-1", "b"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		p, err := h.store.Get(context.Background(), "pl-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if p.Name != "Evening" || p.IndexOf("b") >= 0 {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("persistence failures are reported", func(t *testing.T) {
		h.store.Fail("Rename", errors.New("disk full"))
		defer h.store.Fail("Rename", nil)

		err := h.run(t, "playlist", "rename", "pl-1", "Night")
		if !errors.Is(err, shared.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if !strings.Contains(describe(err), "re-run") {
			t.Errorf("unexpected message %q", describe(err))
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := h.run(t, "playlist", "delete", "pl-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := h.run(t, "playlist", "show", "pl-1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestDescribe(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want string
	}{
		{name: "exhausted", err: fmt.Errorf("%w: all keys", shared.ErrExhaustedCredentials), want: "try again later"},
		{name: "missing keys", err: shared.ErrMissingCredentials, want: "api_keys"},
		{name: "persistence", err: fmt.Errorf("%w: write", shared.ErrPersistence), want: "re-run"},
		{name: "other", err: errors.New("boom"), want: "application error: boom"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("describe() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
