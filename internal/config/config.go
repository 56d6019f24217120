package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Gateway   GatewayConfig   `yaml:"gateway"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path is an optional log file; it is truncated when it grows too large.
	Path string `yaml:"path"`
}

// TransportConfig selects how MCP clients connect: "stdio" or "http".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultTenant serves every request when auth is disabled.
	DefaultTenant string `yaml:"default_tenant"`
}

// GatewayConfig configures the AI completion backend. Provider is "http" for
// an OpenAI-compatible endpoint or "gemini" for the GenAI SDK.
type GatewayConfig struct {
	Provider    string        `yaml:"provider"`
	URL         string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "atlas.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:       true,
			DefaultTenant: "default",
		},
		Gateway: GatewayConfig{
			Provider:    "http",
			URL:         "https://openrouter.ai/api/v1",
			Model:       "google/gemini-2.5-flash",
			Temperature: 0.7,
			MaxTokens:   4096,
			Timeout:     60 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file, an optional .env file
// and environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("ATLAS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	envFile := os.Getenv("ATLAS_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already set in the process.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Gateway.Provider {
	case "http", "gemini":
	default:
		return fmt.Errorf("invalid gateway provider %q", c.Gateway.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("ATLAS_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ATLAS_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid ATLAS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("ATLAS_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("ATLAS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("ATLAS_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}
	if mode := os.Getenv("ATLAS_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = strings.ToLower(mode)
	}
	if enabled := os.Getenv("ATLAS_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid ATLAS_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if tenant := os.Getenv("ATLAS_DEFAULT_TENANT"); tenant != "" {
		cfg.Auth.DefaultTenant = tenant
	}
	if provider := os.Getenv("ATLAS_GATEWAY_PROVIDER"); provider != "" {
		cfg.Gateway.Provider = strings.ToLower(provider)
	}
	if url := os.Getenv("ATLAS_GATEWAY_URL"); url != "" {
		cfg.Gateway.URL = url
	}
	if key := os.Getenv("ATLAS_GATEWAY_API_KEY"); key != "" {
		cfg.Gateway.APIKey = key
	}
	if model := os.Getenv("ATLAS_GATEWAY_MODEL"); model != "" {
		cfg.Gateway.Model = model
	}
	if temp := os.Getenv("ATLAS_GATEWAY_TEMPERATURE"); temp != "" {
		v, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return fmt.Errorf("invalid ATLAS_GATEWAY_TEMPERATURE: %w", err)
		}
		cfg.Gateway.Temperature = v
	}
	if tokens := os.Getenv("ATLAS_GATEWAY_MAX_TOKENS"); tokens != "" {
		v, err := strconv.Atoi(tokens)
		if err != nil {
			return fmt.Errorf("invalid ATLAS_GATEWAY_MAX_TOKENS: %w", err)
		}
		cfg.Gateway.MaxTokens = v
	}
	if timeout := os.Getenv("ATLAS_GATEWAY_TIMEOUT"); timeout != "" {
		v, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid ATLAS_GATEWAY_TIMEOUT: %w", err)
		}
		cfg.Gateway.Timeout = v
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
