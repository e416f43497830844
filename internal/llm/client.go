package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Outcome is the result of one assessment attempt. Exactly one of
// Narrative or Reason is set.
type Outcome struct {
	Narrative string
	Raw       json.RawMessage
	Model     string
	Provider  string
	Reason    string
}

// OK reports whether the model produced a usable answer
func (o Outcome) OK() bool {
	return o.Reason == "" && strings.TrimSpace(o.Narrative) != ""
}

// Source names the model that produced the outcome ("provider/model")
func (o Outcome) Source() string {
	if o.Model == "" {
		return o.Provider
	}
	return o.Provider + "/" + o.Model
}

// Client wraps a Provider and never returns an error: every failure is
// folded into Outcome.Reason so callers can fall back.
type Client struct {
	provider Provider
	config   Config
	initErr  error
}

// NewClient builds a client from config. A construction failure (missing
// credential, unknown provider) is kept and reported on every request.
func NewClient(config Config) *Client {
	provider, err := NewProvider(config)
	return &Client{provider: provider, config: config, initErr: err}
}

// NewClientWithProvider wraps an existing provider
func NewClientWithProvider(provider Provider, config Config) *Client {
	return &Client{provider: provider, config: config}
}

// ProviderName returns the configured provider name
func (c *Client) ProviderName() string {
	if c.provider != nil {
		return c.provider.Name()
	}
	return strings.ToLower(c.config.Provider)
}

// Model returns the configured model name, or the provider default
func (c *Client) Model() string {
	if c.config.Model != "" {
		return c.config.Model
	}
	switch c.ProviderName() {
	case "openai":
		return DefaultOpenAIModel
	case "anthropic":
		return DefaultAnthropicModel
	}
	return ""
}

// Configured reports whether a provider was constructed
func (c *Client) Configured() bool {
	return c.provider != nil && c.initErr == nil
}

// Check reports whether the configured provider is reachable with the
// current credential
func (c *Client) Check(ctx context.Context) error {
	if c.initErr != nil {
		return c.initErr
	}
	if c.provider == nil {
		return ErrNoProvider
	}
	if !c.provider.IsAvailable(ctx) {
		return fmt.Errorf("%s endpoint is not reachable", c.provider.Name())
	}
	return nil
}

// RequestAssessment asks the model for a credibility assessment of content
func (c *Client) RequestAssessment(ctx context.Context, content string) (out Outcome) {
	out = Outcome{Provider: c.ProviderName(), Model: c.Model()}

	if c.initErr != nil {
		out.Reason = c.initErr.Error()
		return out
	}
	if c.provider == nil {
		out.Reason = ErrNoProvider.Error()
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("provider", out.Provider).Errorf("provider panic: %v", r)
			out.Narrative = ""
			out.Raw = nil
			out.Reason = fmt.Sprintf("provider panic: %v", r)
		}
	}()

	resp, err := c.provider.Assess(ctx, AssessRequest{Content: content})
	if err != nil {
		out.Reason = describe(err)
		return out
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		out.Reason = "model returned an empty response"
		return out
	}

	out.Narrative = resp.Text
	out.Raw = resp.Raw
	if resp.Model != "" {
		out.Model = resp.Model
	}

	logrus.WithFields(logrus.Fields{
		"provider": out.Provider,
		"model":    out.Model,
		"tokens":   resp.TokensUsed,
	}).Debug("model assessment received")

	return out
}

// describe turns an error into a short failure reason
func describe(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "model request timed out: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "model request canceled"
	default:
		return err.Error()
	}
}
