package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/truthlens/internal/util"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// DefaultOpenAIModel is used when neither the request nor the config names a model
const DefaultOpenAIModel = "llama-3.1-8b-instant"

// OpenAIProvider talks to any OpenAI-compatible chat-completion API
// (Groq by default, OpenAI, LM Studio, vLLM)
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI-compatible provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, ErrNoCredential
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks the credential with a lightweight model listing
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"provider": p.Name(),
			"base_url": p.config.BaseURL,
		}).WithError(err).Warn("API check failed")
		return false
	}
	return true
}

// Assess sends a single user message to the chat-completion endpoint
func (p *OpenAIProvider) Assess(ctx context.Context, req AssessRequest) (*AssessResponse, error) {
	prompt, modelName, maxTokens := p.config.resolve(req, DefaultOpenAIModel)

	chatReq := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: p.config.temperature(),
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			body, _ := json.Marshal(apiErr)
			return nil, fmt.Errorf("API error (%d): %s: %s", apiErr.HTTPStatusCode, apiErr.Message, body)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, fmt.Errorf("API error (%d): %s", reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in chat completion response")
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		raw = nil
	}

	return &AssessResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
		Raw:        raw,
	}, nil
}
