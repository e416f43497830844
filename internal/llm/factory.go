package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredential is returned when a hosted provider has no API key
var ErrNoCredential = errors.New("no model credential configured")

// ErrNoProvider is returned when the provider name is empty
var ErrNoProvider = errors.New("no model provider configured")

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case "openai", "groq":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, ErrNoProvider

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
