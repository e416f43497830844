package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/truthlens/internal/llm"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://api.groq.com/openai/v1"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://api.anthropic.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, ""); err != nil {
		t.Errorf("empty endpoint should use the default bucket: %v", err)
	}
	if err := limiter.Wait(ctx, "not a url"); err == nil {
		t.Error("expected error for endpoint without host")
	}
}

func TestLimiter_KeyedByHost(t *testing.T) {
	limiter := NewLimiter(1, 1)

	a := limiter.getLimiter("api.groq.com")
	b := limiter.getLimiter("api.groq.com")
	c := limiter.getLimiter("api.anthropic.com")

	if a != b {
		t.Error("same host must share a limiter")
	}
	if a == c {
		t.Error("different hosts must not share a limiter")
	}

	k1, _ := hostKey("https://API.Groq.com/openai/v1")
	k2, _ := hostKey("https://api.groq.com:443/other")
	if k1 != k2 {
		t.Errorf("host key should ignore case, path and port: %s vs %s", k1, k2)
	}
}

func TestLimiter_Throttles(t *testing.T) {
	limiter := NewLimiter(20, 1) // one token every 50ms
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "https://api.groq.com"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected throttling, three waits took %v", elapsed)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)

	start := time.Now()
	for i := 0; i < 100; i++ {
		_ = limiter.Wait(context.Background(), "https://api.groq.com")
	}
	if time.Since(start) > time.Second {
		t.Error("zero rate should not throttle")
	}
}

type countingAssessor struct{ calls int }

func (c *countingAssessor) RequestAssessment(ctx context.Context, content string) llm.Outcome {
	c.calls++
	return llm.Outcome{Narrative: "Score: 70", Provider: "openai", Model: "m"}
}
func (c *countingAssessor) ProviderName() string { return "openai" }
func (c *countingAssessor) Model() string        { return "m" }

func TestLimitedAssessor(t *testing.T) {
	inner := &countingAssessor{}
	la := NewLimitedAssessor(inner, NewLimiter(0.001, 1), "https://api.groq.com/openai/v1")

	if out := la.RequestAssessment(context.Background(), "x"); !out.OK() {
		t.Fatalf("first call should pass: %+v", out)
	}

	// Bucket is empty now; a short deadline cannot be met
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := la.RequestAssessment(ctx, "x")
	if out.OK() || !strings.Contains(out.Reason, "rate limit") {
		t.Errorf("expected rate limit failure, got %+v", out)
	}
	if inner.calls != 1 {
		t.Errorf("inner assessor should be called once, got %d", inner.calls)
	}
}

func TestLimitedAssessor_UnconfiguredClientNotThrottled(t *testing.T) {
	client := llm.NewClient(llm.Config{Provider: "openai"}) // no credential
	la := NewLimitedAssessor(client, NewLimiter(0.5, 1), "https://api.groq.com/openai/v1")

	start := time.Now()
	for i := 0; i < 4; i++ {
		out := la.RequestAssessment(context.Background(), "x")
		if out.OK() || !strings.Contains(out.Reason, "credential") {
			t.Fatalf("expected missing credential reason, got %+v", out)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("fallback-only calls should not wait for tokens, four calls took %v", elapsed)
	}
}
