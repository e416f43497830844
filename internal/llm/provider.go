package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/truthlens/internal/model"
)

// Provider defines the interface for chat-completion backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Assess sends one credibility prompt and returns the model's text
	Assess(ctx context.Context, req AssessRequest) (*AssessResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// AssessRequest contains the input for one assessment call
type AssessRequest struct {
	// Content is the text, link or video link to assess (links are not fetched)
	Content string

	// Prompt overrides the default prompt built from Content
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// AssessResponse contains the model's free-form answer
type AssessResponse struct {
	Text       string
	Model      string
	TokensUsed int

	// Raw is the provider's response body, kept for diagnostics
	Raw json.RawMessage
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey is sent as the bearer credential (x-api-key for Anthropic)
	APIKey string

	// BaseURL for OpenAI-compatible endpoints (Groq, OpenAI, LM Studio) or Ollama
	BaseURL string

	// Timeout for API requests, enforced by the HTTP client
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature is kept low so repeated assessments stay close
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled until a provider is configured
		Timeout:     30,
		MaxTokens:   1000,
		Temperature: 0.3,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   c.HTTPProxy,
		HTTPSProxy:  c.HTTPSProxy,
		NoProxy:     c.NoProxy,
	}
}

// BuildPrompt constructs the credibility prompt for a piece of content
func BuildPrompt(content string) string {
	return fmt.Sprintf(`You are TruthLens, an AI fact-checker. Analyze this content for credibility and misinformation.

Content to analyze: "%s"

Please provide:
1. A credibility score from 0-100 (where 0 = completely false, 100 = completely credible)
2. Key red flags or positive indicators
3. Overall assessment

Format your response with the score clearly stated as "Credibility Score: X/100" somewhere in your response.`, content)
}

// resolve fills request defaults from the provider config
func (c Config) resolve(req AssessRequest, defaultModel string) (prompt, modelName string, maxTokens int) {
	prompt = req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Content)
	}

	modelName = req.Model
	if modelName == "" {
		modelName = c.Model
	}
	if modelName == "" {
		modelName = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	return prompt, modelName, maxTokens
}

// temperature returns the configured temperature or the 0.3 default
func (c Config) temperature() float32 {
	if c.Temperature <= 0 {
		return 0.3
	}
	return c.Temperature
}
