package explain

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/reco/pkg/logger"
	"github.com/okian/reco/pkg/metrics"
)

// Guarded limits the outbound call rate and stops calling a failing
// provider for a while.
type Guarded struct {
	next    Explainer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	name    string
}

type guardSettings struct {
	name              string
	requestsPerMinute int
	failureThreshold  uint32
	openTimeout       time.Duration
	halfOpenRequests  uint32
}

// GuardOption configures a Guarded explainer.
type GuardOption func(*guardSettings)

// WithRequestsPerMinute limits outbound calls. Zero means unlimited.
func WithRequestsPerMinute(n int) GuardOption {
	return func(s *guardSettings) {
		if n >= 0 {
			s.requestsPerMinute = n
		}
	}
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open before a trial call.
func WithBreaker(failureThreshold uint32, openTimeout time.Duration) GuardOption {
	return func(s *guardSettings) {
		if failureThreshold > 0 {
			s.failureThreshold = failureThreshold
		}
		if openTimeout > 0 {
			s.openTimeout = openTimeout
		}
	}
}

// WithBreakerName names the breaker in logs and metrics.
func WithBreakerName(name string) GuardOption {
	return func(s *guardSettings) {
		if name != "" {
			s.name = name
		}
	}
}

// NewGuarded wraps next with a rate limiter and a circuit breaker.
func NewGuarded(next Explainer, opts ...GuardOption) *Guarded {
	s := guardSettings{
		name:             "llm",
		failureThreshold: 5,
		openTimeout:      30 * time.Second,
		halfOpenRequests: 1,
	}
	for _, opt := range opts {
		opt(&s)
	}

	limit := rate.Inf
	burst := 1
	if s.requestsPerMinute > 0 {
		limit = rate.Limit(float64(s.requestsPerMinute) / 60)
		burst = s.requestsPerMinute
	}

	log := logger.Get().Named("explain")
	metrics.UpdateCircuitBreakerState(s.name, float64(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        s.name,
		MaxRequests: s.halfOpenRequests,
		Timeout:     s.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.failureThreshold
		},
		// Callers that gave up are not provider failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			metrics.UpdateCircuitBreakerState(name, float64(to))
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})

	return &Guarded{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: cb,
		name:    s.name,
	}
}

// Explain implements Explainer.
func (g *Guarded) Explain(ctx context.Context, p Prompt) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	text, err := g.breaker.Execute(func() (string, error) {
		return g.next.Explain(ctx, p)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordCircuitBreakerRejected(g.name)
			return "", fmt.Errorf("%w: %w", ErrBreakerOpen, err)
		}
		return "", err
	}
	return text, nil
}

// State reports the breaker state, e.g. "closed".
func (g *Guarded) State() string {
	return g.breaker.State().String()
}
