package convert

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ocrtools/ocrdoc/pkg/mistral"
)

// Config controls a conversion run. The YAML-tagged fields can come from a
// config file; the rest are set by the caller.
type Config struct {
	Model               string `yaml:"model"`
	BaseURL             string `yaml:"base_url"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	ExpiryDays          int    `yaml:"signed_url_expiry_days"`
	DocDir              string `yaml:"processed_dir"`
	JSONDir             string `yaml:"json_dir"`

	// Optional extra outputs.
	MarkdownPath string `yaml:"-"`
	HTMLPath     string `yaml:"-"`
	ImagesDir    string `yaml:"-"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig mirrors the output layout the tool has always used.
func DefaultConfig() Config {
	return Config{
		Model:               mistral.DefaultModel,
		FetchTimeoutSeconds: 30,
		ExpiryDays:          1,
		DocDir:              "docs/processed",
		JSONDir:             "docs/JSON_data",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) fetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c Config) expiryDays() int {
	if c.ExpiryDays <= 0 {
		return 1
	}
	return c.ExpiryDays
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// APIKeyFromEnv returns the OCR service API key from MISTRAL_API_KEY, loading
// a .env file from the working directory first when one exists.
func APIKeyFromEnv() (string, error) {
	_ = godotenv.Load()
	key := os.Getenv("MISTRAL_API_KEY")
	if key == "" {
		return "", fmt.Errorf("MISTRAL_API_KEY is not set")
	}
	return key, nil
}
