// Package config loads application configuration from an optional YAML
// file with environment variable overrides. The provider API key comes
// from the environment only and is required: startup fails fast with a
// clear diagnostic instead of erroring on the first request.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/felixgeelhaar/prioritizer/internal/errors"
)

// DefaultConfigFile is consulted when no --config flag is given.
const DefaultConfigFile = ".prioritizer.yaml"

// ProviderConfig configures the upstream AI client.
type ProviderConfig struct {
	// APIKey is never read from the config file, only from GROQ_API_KEY.
	APIKey  string        `yaml:"-"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
}

// StorageConfig configures the session store.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the complete application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.1-8b-instant",
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Address:         "0.0.0.0:8080",
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
		},
		Storage: StorageConfig{
			Dir: "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and the environment, in that order. path may be empty, in which case
// DefaultConfigFile is used if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, apperrors.NewConfigFileError(path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults apply.
	default:
		return Config{}, apperrors.NewConfigFileError(path, err)
	}

	cfg.applyEnv()

	if cfg.Provider.APIKey == "" {
		return Config{}, apperrors.NewAPIKeyMissingError()
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	c.Provider.APIKey = os.Getenv("GROQ_API_KEY")

	if v := os.Getenv("GROQ_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("PRIORITIZER_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("PRIORITIZER_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("PRIORITIZER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PRIORITIZER_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}
