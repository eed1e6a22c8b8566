package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// fallbackMaxAttempts bounds a search when no attempt ceiling is configured.
const fallbackMaxAttempts = 10

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Search      SearchConfig      `toml:"search"`
	Suggestions SuggestionsConfig `toml:"suggestions"`
	Player      PlayerConfig      `toml:"player"`
	Database    DatabaseConfig    `toml:"database"`
	Store       StoreConfig       `toml:"store"`
	Profile     ProfileConfig     `toml:"profile"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig holds the pool of YouTube Data API keys and the API base URL.
type YouTubeConfig struct {
	APIKeys []string `toml:"api_keys"`
	BaseURL string   `toml:"base_url"`
}

// SearchConfig tunes explicit searches.
type SearchConfig struct {
	MaxAttempts       int     `toml:"max_attempts"`
	MaxResults        int     `toml:"max_results"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	Category          string  `toml:"category"`
	SafeSearch        string  `toml:"safe_search"`
	Order             string  `toml:"order"`
}

// SuggestionsConfig tunes the typeahead pipeline.
type SuggestionsConfig struct {
	MaxAttempts       int    `toml:"max_attempts"`
	MaxResults        int    `toml:"max_results"`
	DebounceMS        int    `toml:"debounce_ms"`
	CacheSize         int    `toml:"cache_size"`
	Keyword           string `toml:"keyword"`
	Category          string `toml:"category"`
	RelevanceLanguage string `toml:"relevance_language"`
}

// PlayerConfig controls how playlists are loaded into the queue.
type PlayerConfig struct {
	ReplaceQueue bool `toml:"replace_queue"`
	HistorySize  int  `toml:"history_size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StoreConfig selects the playlist store driver.
type StoreConfig struct {
	Driver string      `toml:"driver"`
	Redis  RedisConfig `toml:"redis"`
}

// RedisConfig contains connection settings for the redis driver.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ProfileConfig identifies the owner of the playlists.
type ProfileConfig struct {
	OwnerID string `toml:"owner_id"`
}

// LogConfig controls where the TUI writes logs.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first problem that would stop the application from starting.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "", "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite store", ErrInvalidConfig)
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr is required for the redis store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if c.Search.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: search.timeout_seconds must not be negative", ErrInvalidConfig)
	}
	if c.Suggestions.DebounceMS < 0 {
		return fmt.Errorf("%w: suggestions.debounce_ms must not be negative", ErrInvalidConfig)
	}
	if c.Search.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: search.requests_per_second must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Profile.OwnerID) == "" {
		return fmt.Errorf("%w: profile.owner_id is required", ErrInvalidConfig)
	}
	return nil
}

// APIKeys returns the configured keys with blank entries removed.
func (c *Config) APIKeys() []string {
	keys := make([]string, 0, len(c.Credentials.YouTube.APIKeys))
	for _, k := range c.Credentials.YouTube.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// AttemptLimit resolves a configured attempt ceiling, falling back when unset.
func AttemptLimit(n int) int {
	if n <= 0 {
		return fallbackMaxAttempts
	}
	return n
}

// SearchTimeout is the per-request deadline for one upstream call.
func (c *Config) SearchTimeout() time.Duration {
	if c.Search.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// DebounceInterval is the quiet period before a suggestion fetch.
func (c *Config) DebounceInterval() time.Duration {
	if c.Suggestions.DebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.Suggestions.DebounceMS) * time.Millisecond
}
