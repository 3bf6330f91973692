// Package config loads and validates bizradar configuration.
//
// Configuration comes from a YAML file with environment variable
// overrides applied on top. A missing file is not an error: the
// defaults are returned so the server can run with nothing but
// an API key and a JWT secret in the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all bizradar configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// SQLite storage
	Database DatabaseConfig `yaml:"database"`

	// LLM provider
	LLM LLMConfig `yaml:"llm"`

	// Password hashing and token issuing
	Auth AuthConfig `yaml:"auth"`

	// Background response polling
	Jobs JobsConfig `yaml:"jobs"`

	// Prompt templates
	Prompts PromptsConfig `yaml:"prompts"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig configures the LLM provider.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // openai, gemini, mock
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`

	// PromptIDs maps tool names to server-side prompt templates
	// published with the provider (Responses API prompt ids).
	PromptIDs map[string]string `yaml:"prompt_ids"`
}

// AuthConfig configures password hashing and JWT issuing.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	TokenTTL   string `yaml:"token_ttl"`
	BcryptCost int    `yaml:"bcrypt_cost"` // 0 means bcrypt.DefaultCost
}

// JobsConfig configures the background response poller.
type JobsConfig struct {
	PollInterval  string `yaml:"poll_interval"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// PromptsConfig configures prompt template loading.
type PromptsConfig struct {
	// Dir overrides the compiled-in templates when set.
	Dir string `yaml:"dir"`

	// Watch reloads templates from Dir when files change.
	Watch bool `yaml:"watch"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "bizradar",
		Version: "0.3.0",

		Server: ServerConfig{
			Addr:        ":8080",
			ReadTimeout: "15s",
			// Synchronous tool runs wait on the provider, so the write
			// timeout must outlast the LLM timeout.
			WriteTimeout:    "180s",
			ShutdownTimeout: "10s",
		},

		Database: DatabaseConfig{
			Path: "data/bizradar.db",
		},

		LLM: LLMConfig{
			// Model and BaseURL left empty pick the provider defaults.
			Provider:   "openai",
			Timeout:    "120s",
			MaxRetries: 3,
		},

		Auth: AuthConfig{
			TokenTTL: "24h",
		},

		Jobs: JobsConfig{
			PollInterval:  "5s",
			MaxConcurrent: 4,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Provider API keys (OPENAI_API_KEY wins when both are set)
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}

	// Explicit provider selection beats key detection
	if provider := os.Getenv("BIZRADAR_LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if addr := os.Getenv("BIZRADAR_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("BIZRADAR_DB"); path != "" {
		c.Database.Path = path
	}
	if secret := os.Getenv("BIZRADAR_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if level := os.Getenv("BIZRADAR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetLLMTimeout returns the LLM request timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetTokenTTL returns the JWT lifetime as a duration.
func (c *Config) GetTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetPollInterval returns the background poll interval as a duration.
func (c *Config) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Jobs.PollInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetWriteTimeout returns the HTTP write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return 180 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "gemini", "mock"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.LLM.APIKey == "" && c.LLM.Provider != "mock" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY or GEMINI_API_KEY)")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret not configured (set BIZRADAR_JWT_SECRET)")
	}

	if c.Jobs.MaxConcurrent < 1 {
		return fmt.Errorf("jobs.max_concurrent must be at least 1, got %d", c.Jobs.MaxConcurrent)
	}

	return nil
}
