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
	AI          AIConfig                  `json:"ai"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type BasicConfig struct {
	ServerAddress        string `json:"server_address"`
	MediaDir             string `json:"media_dir"`
	MediaTTLMinutes      int    `json:"media_ttl_minutes"`
	CleanIntervalMinutes int    `json:"clean_interval_minutes"`
	SubmitTimeoutMinutes int    `json:"submit_timeout_minutes"`
}

// AIConfig selects the models behind the four generation capabilities.
// Provider picks the chat model used for copywriting; research, image and
// video always run against the Gemini API.
type AIConfig struct {
	Provider             string `json:"provider"`
	ResearchModel        string `json:"research_model"`
	ImageModel           string `json:"image_model"`
	VideoModel           string `json:"video_model"`
	VideoPollSeconds     int    `json:"video_poll_seconds"`
	VideoTimeoutMinutes  int    `json:"video_timeout_minutes"`
	ResearchCacheMinutes int    `json:"research_cache_minutes"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
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

// Load reads configuration from the provided path (defaults to config.json).
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

	if _, ok := cfg.Providers["gemini"]; !ok {
		return nil, fmt.Errorf("providers.gemini must be configured")
	}

	cfg.applyDefaults()

	if !filepath.IsAbs(cfg.BasicConfig.MediaDir) {
		cfg.BasicConfig.MediaDir = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.MediaDir)
	}
	for name, db := range cfg.Databases {
		if db.DSN != "" && db.DSN != ":memory:" && !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8090"
	}
	if c.BasicConfig.MediaDir == "" {
		c.BasicConfig.MediaDir = "./data/media"
	}
	if c.BasicConfig.SubmitTimeoutMinutes <= 0 {
		c.BasicConfig.SubmitTimeoutMinutes = 15
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.ResearchModel == "" {
		c.AI.ResearchModel = "gemini-2.5-flash"
	}
	if c.AI.ImageModel == "" {
		c.AI.ImageModel = "gemini-2.5-flash-image"
	}
	if c.AI.VideoModel == "" {
		c.AI.VideoModel = "veo-3.0-generate-001"
	}
	if c.AI.VideoPollSeconds <= 0 {
		c.AI.VideoPollSeconds = 5
	}
	if c.AI.VideoTimeoutMinutes <= 0 {
		c.AI.VideoTimeoutMinutes = 10
	}
}
