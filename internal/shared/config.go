package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	AppleMusic AppleMusicConfig `toml:"applemusic"`
}

// AppleMusicConfig contains Apple Music API credentials and storefront.
//
// DeveloperToken authorizes catalog reads. UserToken (Music-User-Token)
// additionally authorizes library mutations and may instead live in the token
// store; a value here takes precedence.
type AppleMusicConfig struct {
	DeveloperToken string `toml:"developer_token"`
	UserToken      string `toml:"user_token"`
	Storefront     string `toml:"storefront"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig contains pipeline pacing and propagation settings.
//
// SearchesPerSecond switches search pacing from a fixed inter-call delay
// to a token bucket; when set it takes precedence over SearchDelayMS.
type SyncConfig struct {
	SearchDelayMS     int     `toml:"search_delay_ms"` // pause between remote search calls
	SearchesPerSecond float64 `toml:"searches_per_second"`
	SettleDelayMS     int     `toml:"settle_delay_ms"` // wait after bulk library add before local lookups
	Description       string  `toml:"playlist_description"`
}

// ServerConfig contains settings for the local token-capture server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
