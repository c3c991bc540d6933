package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./listx.db" {
			t.Errorf("expected database path ./listx.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Import.BatchSize != 50 {
			t.Errorf("expected batch size 50, got %d", config.Import.BatchSize)
		}
		if config.Import.Threshold != 70 {
			t.Errorf("expected threshold 70, got %d", config.Import.Threshold)
		}
		if config.Import.MaxSearchResults != 8 {
			t.Errorf("expected max search results 8, got %d", config.Import.MaxSearchResults)
		}
		if config.Import.PlaylistTitle != "Imported from PDF" {
			t.Errorf("unexpected default playlist title %q", config.Import.PlaylistTitle)
		}
		if config.Notify.Discord.Enabled() {
			t.Error("discord notifier should be disabled by default")
		}
		if len(config.Watch.Extensions) == 0 {
			t.Error("expected default watch extensions")
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

		if config.Database.Path != DefaultConfig().Database.Path {
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

[server]
host = "0.0.0.0"
port = 8080

[catalog]
base_url = "http://localhost:9090"
timeout_seconds = 5

[import]
threshold = 85
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
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Catalog.BaseURL != "http://localhost:9090" {
			t.Errorf("expected catalog base url override, got %s", config.Catalog.BaseURL)
		}
		if config.Catalog.Timeout().Seconds() != 5 {
			t.Errorf("expected 5s timeout, got %v", config.Catalog.Timeout())
		}
		if config.Import.Threshold != 85 {
			t.Errorf("expected threshold 85, got %d", config.Import.Threshold)
		}
		if config.Import.BatchSize != 50 {
			t.Errorf("unset keys should keep defaults, got batch size %d", config.Import.BatchSize)
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("LISTX_IMPORT_THRESHOLD", "90")
		t.Setenv("LISTX_CATALOG_BASE_URL", "http://env-proxy:1234")
		t.Setenv("LISTX_DISCORD_WEBHOOK_ID", "123")
		t.Setenv("LISTX_DISCORD_WEBHOOK_TOKEN", "abc")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}

		if config.Import.Threshold != 90 {
			t.Errorf("expected threshold 90 from env, got %d", config.Import.Threshold)
		}
		if config.Catalog.BaseURL != "http://env-proxy:1234" {
			t.Errorf("expected env base url, got %s", config.Catalog.BaseURL)
		}
		if !config.Notify.Discord.Enabled() {
			t.Error("expected discord notifier to be enabled from env")
		}
		if config.Import.BatchSize != 50 {
			t.Errorf("unset env vars should keep values, got batch size %d", config.Import.BatchSize)
		}
	})

	t.Run("Invalid Environment Value", func(t *testing.T) {
		t.Setenv("LISTX_IMPORT_BATCH_SIZE", "many")

		if err := ApplyEnv(DefaultConfig()); err == nil {
			t.Error("expected error for non-numeric batch size")
		}
	})
}
