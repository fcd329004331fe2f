package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./amsync.db" {
			t.Errorf("expected database path ./amsync.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.AppleMusic.Storefront != "us" {
			t.Errorf("expected storefront us, got %s", config.Credentials.AppleMusic.Storefront)
		}

		if config.Sync.SearchDelayMS != 100 {
			t.Errorf("expected search delay 100ms, got %d", config.Sync.SearchDelayMS)
		}

		if config.Sync.SettleDelayMS != 3000 {
			t.Errorf("expected settle delay 3000ms, got %d", config.Sync.SettleDelayMS)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[sync]
search_delay_ms = 250
settle_delay_ms = 5000
playlist_description = "test description"

[server]
host = "0.0.0.0"
port = 8080

[credentials.applemusic]
developer_token = "dev_token_value"
user_token = "user_token_value"
storefront = "gb"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Sync.SearchDelayMS != 250 {
			t.Errorf("expected search delay 250, got %d", config.Sync.SearchDelayMS)
		}

		if config.Credentials.AppleMusic.Storefront != "gb" {
			t.Errorf("expected storefront gb, got %s", config.Credentials.AppleMusic.Storefront)
		}

		if config.Credentials.AppleMusic.UserToken != "user_token_value" {
			t.Errorf("expected user token user_token_value, got %s", config.Credentials.AppleMusic.UserToken)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
