package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `{
  "basic_config": {
    "server_address": ":8090",
    "staging_dir": "data/staging",
    "webhook_secret": "plik-sekret",
    "workers": 4,
    "queue_size": 32
  },
  "databases": {
    "sqlite3": {"dsn": "./data/app.db"}
  },
  "gemini": {"api_key": "plik-klucz"}
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndPaths(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":8090" || cfg.BasicConfig.Workers != 4 {
		t.Fatalf("basic config not loaded: %+v", cfg.BasicConfig)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("model default not applied: %q", cfg.Gemini.Model)
	}
	if !filepath.IsAbs(cfg.BasicConfig.StagingDir) {
		t.Fatalf("staging dir should be resolved against the config file: %q", cfg.BasicConfig.StagingDir)
	}
	if _, ok := cfg.Databases["sqlite3"]; !ok {
		t.Fatalf("sqlite database config missing")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("GOOGLE_API_KEY", "env-klucz")
	t.Setenv("WEBHOOK_SECRET", "env-sekret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Gemini.APIKey != "env-klucz" {
		t.Fatalf("GOOGLE_API_KEY should win: %q", cfg.Gemini.APIKey)
	}
	if cfg.BasicConfig.WebhookSecret != "env-sekret" {
		t.Fatalf("WEBHOOK_SECRET should win: %q", cfg.BasicConfig.WebhookSecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "{not json")
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed file must fail")
	}
}
