package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestOpenAIProvider_Assess_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama-3.1-8b-instant" {
			t.Errorf("Expected model llama-3.1-8b-instant, got %s", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != openai.ChatMessageRoleUser {
			t.Fatalf("Expected one user message, got %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, `"Vaccines cause autism"`) {
			t.Errorf("Prompt does not embed content: %s", req.Messages[0].Content)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("Expected max_tokens 1000, got %d", req.MaxTokens)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "llama-3.1-8b-instant",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "Credibility Score: 12/100\nThis claim has been refuted.",
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 120},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Timeout:   5,
		MaxTokens: 1000,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Assess(context.Background(), AssessRequest{Content: "Vaccines cause autism"})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if !strings.HasPrefix(resp.Text, "Credibility Score: 12/100") {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 120 {
		t.Errorf("Expected 120 tokens, got %d", resp.TokensUsed)
	}
	if len(resp.Raw) == 0 {
		t.Error("Expected raw response to be kept")
	}
}

func TestOpenAIProvider_Assess_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "bad", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatal(err)
	}

	_, err = provider.Assess(context.Background(), AssessRequest{Content: "x"})
	if err == nil {
		t.Fatal("Expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid API Key") {
		t.Errorf("Expected status and message in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid_request_error") {
		t.Errorf("Expected error body in error, got %v", err)
	}
}

func TestOpenAIProvider_Assess_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream gateway unavailable"))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatal(err)
	}

	_, err = provider.Assess(context.Background(), AssessRequest{Content: "x"})
	if err == nil {
		t.Fatal("Expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream gateway unavailable") {
		t.Errorf("Expected status and body in error, got %v", err)
	}
}

func TestOpenAIProvider_Assess_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "empty"})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := provider.Assess(context.Background(), AssessRequest{Content: "x"}); err == nil {
		t.Error("Expected error when no choices are returned")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err != ErrNoCredential {
		t.Errorf("Expected ErrNoCredential, got %v", err)
	}
}
