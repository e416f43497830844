package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/ppiankov/truthlens/internal/llm"
	"golang.org/x/time/rate"
)

// Limiter implements per-host rate limiting for outbound model calls
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait waits for rate limit clearance for the endpoint's host
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	host, err := hostKey(endpoint)
	if err != nil {
		return err
	}
	return l.getLimiter(host).Wait(ctx)
}

// getLimiter returns the rate limiter for a host
func (l *Limiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

// hostKey extracts the lowercased host from an endpoint URL. An empty
// endpoint maps to the "default" bucket.
func hostKey(endpoint string) (string, error) {
	if endpoint == "" {
		return "default", nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return strings.ToLower(parsed.Hostname()), nil
}

// Assessor is the remote model surface the limiter wraps
type Assessor interface {
	RequestAssessment(ctx context.Context, content string) llm.Outcome
	ProviderName() string
	Model() string
}

// LimitedAssessor waits on the limiter before each remote call
type LimitedAssessor struct {
	Assessor
	limiter  *Limiter
	endpoint string
}

// NewLimitedAssessor wraps an assessor with a rate limit on endpoint's host
func NewLimitedAssessor(a Assessor, limiter *Limiter, endpoint string) *LimitedAssessor {
	return &LimitedAssessor{Assessor: a, limiter: limiter, endpoint: endpoint}
}

// RequestAssessment waits for clearance, then delegates. A wait failure
// becomes a failure outcome so the caller falls back. An unconfigured
// assessor makes no network call and is never throttled.
func (a *LimitedAssessor) RequestAssessment(ctx context.Context, content string) llm.Outcome {
	if c, ok := a.Assessor.(interface{ Configured() bool }); ok && !c.Configured() {
		return a.Assessor.RequestAssessment(ctx, content)
	}
	if err := a.limiter.Wait(ctx, a.endpoint); err != nil {
		return llm.Outcome{
			Provider: a.ProviderName(),
			Model:    a.Model(),
			Reason:   fmt.Sprintf("rate limit wait: %v", err),
		}
	}
	return a.Assessor.RequestAssessment(ctx, content)
}
