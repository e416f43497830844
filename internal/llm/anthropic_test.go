package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicProvider_Assess_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Missing anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("Expected one user message, got %+v", req.Messages)
		}

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "Credibility Score: 88/100"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 40, "output_tokens": 12}
		}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Assess(context.Background(), AssessRequest{Content: "Reuters reports"})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if resp.Text != "Credibility Score: 88/100" {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 52 {
		t.Errorf("Expected 52 tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_Assess_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatal(err)
	}

	_, err = provider.Assess(context.Background(), AssessRequest{Content: "x"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "slow down") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), `{"error":{"type":"rate_limit_error"`) {
		t.Errorf("Expected raw body in error, got %v", err)
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err != ErrNoCredential {
		t.Errorf("Expected ErrNoCredential, got %v", err)
	}
}
