package service

import (
	"time"

	"github.com/okian/reco/internal/adapters/explain"
	"github.com/okian/reco/internal/domain/ranking"
	"github.com/okian/reco/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRanker replaces the default ranker.
func WithRanker(r *ranking.Ranker) Option {
	return func(s *Service) {
		if r != nil {
			s.ranker = r
		}
	}
}

// WithExplainer sets the text generator. Without one every explanation uses
// its fallback.
func WithExplainer(e explain.Explainer) Option {
	return func(s *Service) {
		if e != nil {
			s.explainer = e
		}
	}
}

// WithTopK sets the default and maximum number of recommendations.
func WithTopK(defaultK, maxK int) Option {
	return func(s *Service) {
		if defaultK >= 0 && maxK >= defaultK {
			s.topK = defaultK
			s.maxTopK = maxK
		}
	}
}

// WithExplainConcurrency bounds in-flight explanation calls per request.
func WithExplainConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.explainConcurrency = n
		}
	}
}

// WithExplainTimeout bounds each explanation call.
func WithExplainTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.explainTimeout = d
		}
	}
}

// WithExplainDeadline bounds the whole explanation fan-out of one request.
// Prompts still pending at the deadline use their fallbacks. Zero means no
// overall bound.
func WithExplainDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.explainDeadline = d
		}
	}
}

// WithFallback sets the text used when a recommendation explanation fails.
func WithFallback(text string) Option {
	return func(s *Service) {
		s.fallback = text
	}
}

// WithWarmup enables background generation of listing descriptions at Start.
func WithWarmup(workers, queueSize int) Option {
	return func(s *Service) {
		if workers > 0 && queueSize > 0 {
			s.warmupEnabled = true
			s.warmupWorkers = workers
			s.warmupQueueSize = queueSize
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
