package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	Import   ImportConfig   `toml:"import"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Notify   NotifyConfig   `toml:"notify"`
	Watch    WatchConfig    `toml:"watch"`
}

// CatalogConfig contains the remote catalog (proxy) connection settings.
type CatalogConfig struct {
	BaseURL           string   `toml:"base_url" env:"LISTX_CATALOG_BASE_URL"`
	SessionFile       string   `toml:"session_file" env:"LISTX_CATALOG_SESSION_FILE"`
	ClientID          string   `toml:"client_id" env:"LISTX_CATALOG_CLIENT_ID"`
	ClientSecret      string   `toml:"client_secret" env:"LISTX_CATALOG_CLIENT_SECRET"`
	TokenURL          string   `toml:"token_url" env:"LISTX_CATALOG_TOKEN_URL"`
	AuthURL           string   `toml:"auth_url" env:"LISTX_CATALOG_AUTH_URL"`
	RedirectURL       string   `toml:"redirect_url" env:"LISTX_CATALOG_REDIRECT_URL"`
	Scopes            []string `toml:"scopes"`
	PlaylistURLFormat string   `toml:"playlist_url_format" env:"LISTX_CATALOG_PLAYLIST_URL_FORMAT"`
	TimeoutSeconds    int      `toml:"timeout_seconds" env:"LISTX_CATALOG_TIMEOUT_SECONDS"`
	RequestsPerSecond float64  `toml:"requests_per_second" env:"LISTX_CATALOG_REQUESTS_PER_SECOND"`
}

// Timeout returns the per-call timeout for catalog requests.
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ImportConfig contains matching and assembly parameters for import runs.
type ImportConfig struct {
	PlaylistTitle       string `toml:"playlist_title" env:"LISTX_IMPORT_PLAYLIST_TITLE"`
	PlaylistDescription string `toml:"playlist_description" env:"LISTX_IMPORT_PLAYLIST_DESCRIPTION"`
	BatchSize           int    `toml:"batch_size" env:"LISTX_IMPORT_BATCH_SIZE"`
	Threshold           int    `toml:"threshold" env:"LISTX_IMPORT_THRESHOLD"`
	MaxSearchResults    int    `toml:"max_search_results" env:"LISTX_IMPORT_MAX_SEARCH_RESULTS"`
	ProgressEvery       int    `toml:"progress_every" env:"LISTX_IMPORT_PROGRESS_EVERY"`
	UnmatchedEvery      int    `toml:"unmatched_every" env:"LISTX_IMPORT_UNMATCHED_EVERY"`
	UnmatchedPreview    int    `toml:"unmatched_preview" env:"LISTX_IMPORT_UNMATCHED_PREVIEW"`
	CandidatePreview    int    `toml:"candidate_preview" env:"LISTX_IMPORT_CANDIDATE_PREVIEW"`
	UseMatchCache       bool   `toml:"use_match_cache" env:"LISTX_IMPORT_USE_MATCH_CACHE"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"LISTX_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"LISTX_SERVER_HOST"`
	Port int    `toml:"port" env:"LISTX_SERVER_PORT"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig controls log level and optional rotating file output.
type LogConfig struct {
	Level      string `toml:"level" env:"LISTX_LOG_LEVEL"`
	File       string `toml:"file" env:"LISTX_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// NotifyConfig contains progress relay targets.
type NotifyConfig struct {
	Discord DiscordConfig `toml:"discord"`
}

// DiscordConfig identifies a Discord webhook used to relay run progress.
type DiscordConfig struct {
	WebhookID    string `toml:"webhook_id" env:"LISTX_DISCORD_WEBHOOK_ID"`
	WebhookToken string `toml:"webhook_token" env:"LISTX_DISCORD_WEBHOOK_TOKEN"`
	Username     string `toml:"username"`
}

// Enabled reports whether both webhook coordinates are set.
func (d DiscordConfig) Enabled() bool {
	return d.WebhookID != "" && d.WebhookToken != ""
}

// WatchConfig contains inbox watcher settings.
type WatchConfig struct {
	Dir             string   `toml:"dir" env:"LISTX_WATCH_DIR"`
	Extensions      []string `toml:"extensions"`
	DebounceSeconds int      `toml:"debounce_seconds"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values from a .env file and LISTX_* environment variables take precedence over the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv loads .env (when present) and overlays LISTX_* variables onto config.
//
// godotenv never overrides variables already set in the process environment.
func ApplyEnv(config *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to load .env: %v", ErrInvalidConfig, err)
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
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
