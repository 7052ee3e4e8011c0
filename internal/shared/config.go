package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the config file.
const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvStoreDir     = "MANDOLIN_STORE_DIR"
	EnvLogLevel     = "MANDOLIN_LOG_LEVEL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog CatalogConfig `toml:"catalog"`
	Store   StoreConfig   `toml:"store"`
	Fetcher FetcherConfig `toml:"fetcher"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// CatalogConfig holds the Spotify Web API client credentials and request limits.
type CatalogConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	TokenURL     string  `toml:"token_url"`
	BaseURL      string  `toml:"base_url"`
	Market       string  `toml:"market"`
	RateLimit    float64 `toml:"rate_limit"`  // Requests per second
	Concurrency  int     `toml:"concurrency"` // Parallel metadata fetches for multi-collection requests
}

// StoreConfig locates the track-list files.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// FetcherConfig describes how the media fetcher command is invoked.
type FetcherConfig struct {
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	OutputDir string   `toml:"output_dir"`
	Timeout   Duration `toml:"timeout"` // Per-track limit, zero disables it
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// LogConfig sets the minimum log level (debug, info, warn, error).
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a [time.Duration] that decodes from TOML strings such as "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidConfig, string(text))
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
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

// Resolve loads the config at path when it exists (defaults otherwise), reads
// any .env files and applies environment overrides.
func Resolve(path string, envFiles ...string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	config.ApplyEnv(os.Getenv)

	return config, nil
}

// LoadEnv loads .env files into the process environment. Missing files are ignored
// and variables that are already set win over file values.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvClientID); v != "" {
		c.Catalog.ClientID = v
	}
	if v := getenv(EnvClientSecret); v != "" {
		c.Catalog.ClientSecret = v
	}
	if v := getenv(EnvStoreDir); v != "" {
		c.Store.Dir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate reports configuration that would prevent the service from starting.
func (c *Config) Validate() error {
	var problems []string

	if c.Store.Dir == "" {
		problems = append(problems, "store.dir is empty")
	}
	if c.Fetcher.Command == "" {
		problems = append(problems, "fetcher.command is empty")
	}
	if c.Catalog.RateLimit < 0 {
		problems = append(problems, "catalog.rate_limit is negative")
	}
	if c.Catalog.Concurrency < 0 {
		problems = append(problems, "catalog.concurrency is negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if _, err := log.ParseLevel(c.Log.Level); c.Log.Level != "" && err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q unknown", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// HasCredentials reports whether both catalog client credentials are present.
func (c CatalogConfig) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" &&
		c.ClientID != "your_spotify_client_id" && c.ClientSecret != "your_spotify_client_secret"
}
