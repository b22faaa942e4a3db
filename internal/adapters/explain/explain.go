// Package explain produces short texts (recommendation reasons, product
// descriptions) with an OpenAI-compatible chat completion API.
//
// The HTTP client is wrapped by decorators that share the Explainer
// interface: Guarded adds an outbound rate limit and a circuit breaker,
// Cached adds a TTL cache in memory or Redis.
package explain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Kind labels a prompt for metrics and cache keys.
type Kind string

const (
	KindRecommendation Kind = "recommendation"
	KindDescription    Kind = "description"
	KindListing        Kind = "listing"
)

// Prompt is one system/user message pair.
type Prompt struct {
	Kind   Kind
	System string
	User   string
}

// Key returns a stable cache key for the prompt.
func (p Prompt) Key() string {
	h := sha256.New()
	h.Write([]byte(p.Kind))
	h.Write([]byte{0})
	h.Write([]byte(p.System))
	h.Write([]byte{0})
	h.Write([]byte(p.User))
	return string(p.Kind) + ":" + hex.EncodeToString(h.Sum(nil))
}

// Explainer turns a prompt into text.
type Explainer interface {
	Explain(ctx context.Context, p Prompt) (string, error)
}

// Disabled is used when no provider is configured. Every call fails with
// ErrDisabled so callers fall back to their default text.
type Disabled struct{}

// Explain implements Explainer.
func (Disabled) Explain(context.Context, Prompt) (string, error) {
	return "", ErrDisabled
}
