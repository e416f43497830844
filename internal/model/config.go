package model

import (
	"os"
	"path/filepath"
)

// Config is the complete TruthLens configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	History      HistoryConfig      `yaml:"history" mapstructure:"history"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures the remote chat-completion endpoint
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai (any OpenAI-compatible API), anthropic, ollama, "" = disabled
	Model       string  `yaml:"model" mapstructure:"model"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds, enforced by the HTTP transport
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy     string  `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the optional assessment cache
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir              string `yaml:"dir" mapstructure:"dir"`
	MemoryTTLMinutes int    `yaml:"memory_ttl_minutes" mapstructure:"memory_ttl_minutes"`
	DiskTTLHours     int    `yaml:"disk_ttl_hours" mapstructure:"disk_ttl_hours"`
}

// HistoryConfig configures the analysis history store
type HistoryConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite database file
	User string `yaml:"user" mapstructure:"user"` // Default history owner
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles outbound model calls in batch mode
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig configures console output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults. The remote endpoint defaults to
// Groq's OpenAI-compatible API; no credential is ever built in.
func DefaultConfig() *Config {
	dataDir := DataDir()

	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "llama-3.1-8b-instant",
			BaseURL:     "https://api.groq.com/openai/v1",
			Timeout:     30,
			MaxTokens:   1000,
			Temperature: 0.3,
		},
		Cache: CacheConfig{
			Enabled:          false,
			Dir:              filepath.Join(dataDir, "cache"),
			MemoryTTLMinutes: 60,
			DiskTTLHours:     24,
		},
		History: HistoryConfig{
			Path: filepath.Join(dataDir, "history.db"),
			User: "default",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0.5, // Groq free tier allows 30 requests/minute
			BurstSize:         2,
		},
	}
}

// DataDir returns ~/.truthlens, or .truthlens when the home directory is unknown
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".truthlens"
	}
	return filepath.Join(home, ".truthlens")
}
