package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vampirenirmal/brandkit/internal/media"
)

type Config struct {
	Text   TextConfig   `yaml:"text" validate:"required"`
	Media  MediaConfig  `yaml:"media" validate:"required"`
	Limits Limits       `yaml:"limits" validate:"required"`
	Server ServerConfig `yaml:"server" validate:"required"`
	Log    LogConfig    `yaml:"log"`
}

// TextConfig selects the text-generation provider. An empty key is
// allowed; calls then fail and every stage falls back.
type TextConfig struct {
	APIKey  string        `yaml:"api_key" validate:"omitempty,min=20"`
	APIType string        `yaml:"api_type" validate:"required,oneof=gemini openai anthropic"`
	Model   string        `yaml:"model" validate:"required"`
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"required,min=5s,max=30m"`
}

type MediaConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Models  media.Models  `yaml:"models"`
	Timeout time.Duration `yaml:"timeout" validate:"required,min=5s,max=30m"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0,max=5m"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns a configuration that validates without a file.
func Default() Config {
	return Config{
		Text: TextConfig{
			APIType: "gemini",
			Model:   "gemini-2.5-pro",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: 2 * time.Minute,
		},
		Media: MediaConfig{
			BaseURL: "https://fal.run",
			Models:  media.DefaultModels(),
			Timeout: 10 * time.Minute,
		},
		Limits: DefaultLimits(),
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000"},
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads .env, then the YAML file if present, then environment
// overrides, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(getConfigPath())
}

// LoadFile is Load without .env handling. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("BRANDKIT_CONFIG"); path != "" {
		return path
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "brandkit", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "brandkit", "config.yaml")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Text.APIKey = v
	}
	if v := os.Getenv("FAL_KEY"); v != "" {
		c.Media.APIKey = v
	}
	if v := os.Getenv("BRANDKIT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

func (c *Config) Validate() error {
	if c.Limits.SocialConcurrency == 0 {
		c.Limits.SocialConcurrency = DefaultLimits().SocialConcurrency
	}
	if c.Media.Models == (media.Models{}) {
		c.Media.Models = media.DefaultModels()
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// TextConfigured reports whether a text-generation key is present.
func (c *Config) TextConfigured() bool {
	return c.Text.APIKey != ""
}

// MediaConfigured reports whether a media-generation key is present.
func (c *Config) MediaConfigured() bool {
	return c.Media.APIKey != ""
}

// SlogLevel maps the configured level name onto slog.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
