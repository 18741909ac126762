// Package config loads application configuration from file, environment and
// flags via viper.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Registry configuration
	Registry RegistryConfig `mapstructure:"registry"`

	// Patients configuration
	Patients PatientsConfig `mapstructure:"patients"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // embedeverything, openai
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	BatchSize  int    `mapstructure:"batch_size"`
	Dimensions int    `mapstructure:"dimensions"`
}

// CacheConfig holds embedding cache configuration
type CacheConfig struct {
	Dir  string `mapstructure:"dir"`
	TopK int    `mapstructure:"top_k"`
}

// RegistryConfig holds trial registry client configuration
type RegistryConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Preset  string `mapstructure:"preset"`
}

// PatientsConfig holds patient store configuration
type PatientsConfig struct {
	Dir string `mapstructure:"dir"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds email alerting configuration
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 7860)
	viper.SetDefault("server.mode", "release")

	// Embedding defaults: the local sentence encoder used by the original
	// service.
	viper.SetDefault("embedding.provider", "embedeverything")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.batch_size", 256)
	viper.SetDefault("embedding.dimensions", 384)

	// Cache defaults
	viper.SetDefault("cache.dir", "data")
	viper.SetDefault("cache.top_k", 50)

	// Registry defaults
	viper.SetDefault("registry.preset", "quick")

	// Patients defaults
	viper.SetDefault("patients.dir", "data/patients")

	// Alert defaults
	viper.SetDefault("alert.enabled", false)
	viper.SetDefault("alert.smtp_port", 587)
}

// Sample renders a YAML document of the default configuration, suitable for
// seeding a config file.
func Sample() ([]byte, error) {
	sample := map[string]any{
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"server": map[string]any{
			"host": "localhost",
			"port": 7860,
			"mode": "release",
		},
		"embedding": map[string]any{
			"provider":   "embedeverything",
			"model":      "all-MiniLM-L6-v2",
			"batch_size": 256,
			"dimensions": 384,
		},
		"cache": map[string]any{
			"dir":   "data",
			"top_k": 50,
		},
		"registry": map[string]any{
			"preset": "quick",
		},
		"patients": map[string]any{
			"dir": "data/patients",
		},
		"alert": map[string]any{
			"enabled":   false,
			"smtp_host": "",
			"smtp_port": 587,
		},
	}
	out, err := yaml.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to render sample config: %w", err)
	}
	return out, nil
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}
	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		config.Cache.Dir = dir
	}
	if dir := os.Getenv("PATIENTS_DIR"); dir != "" {
		config.Patients.Dir = dir
	}
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
