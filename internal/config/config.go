package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Gemini      GeminiConfig              `json:"gemini"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	StagingDir    string `json:"staging_dir"`
	WebhookSecret string `json:"webhook_secret"`
	EmailDomain   string `json:"email_domain"`
	Workers       int    `json:"workers"`
	QueueSize     int    `json:"queue_size"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// Load reads configuration from the provided path (defaults to config.json).
// GOOGLE_API_KEY and WEBHOOK_SECRET from the environment take precedence over
// the file so deployments can keep secrets out of it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		cfg.BasicConfig.WebhookSecret = secret
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}

	if cfg.BasicConfig.StagingDir != "" && !filepath.IsAbs(cfg.BasicConfig.StagingDir) {
		cfg.BasicConfig.StagingDir = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.StagingDir)
	}

	return &cfg, nil
}
