// Package service ranks related products for the HTTP API and decorates the
// results with generated explanations.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/reco/internal/adapters/explain"
	"github.com/okian/reco/internal/adapters/mq/queue"
	"github.com/okian/reco/internal/adapters/mq/worker"
	"github.com/okian/reco/internal/domain/catalog"
	"github.com/okian/reco/internal/domain/model"
	"github.com/okian/reco/internal/domain/ranking"
	"github.com/okian/reco/internal/domain/types"
	"github.com/okian/reco/pkg/logger"
	"github.com/okian/reco/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service implements the API dependencies for the recommendation system.
type Service struct {
	mu sync.RWMutex

	catalog   *catalog.Snapshot
	ranker    *ranking.Ranker
	explainer explain.Explainer

	topK               int
	maxTopK            int
	explainConcurrency int
	explainTimeout     time.Duration
	explainDeadline    time.Duration
	fallback           string

	warmupEnabled   bool
	warmupWorkers   int
	warmupQueueSize int
	warmupQueue     *queue.InMemoryQueue
	warmupPool      *worker.Pool
	cancel          context.CancelFunc

	explanations  atomic.Int64
	fallbacks     atomic.Int64
	warmupDrained atomic.Bool

	started bool
	logger  logger.Logger
}

// New constructs a Service over a loaded catalog.
func New(snap *catalog.Snapshot, opts ...Option) (*Service, error) {
	if snap == nil {
		return nil, ErrNoCatalog
	}

	s := &Service{
		catalog:            snap,
		explainer:          explain.Disabled{},
		topK:               3,
		maxTopK:            50,
		explainConcurrency: 3,
		explainTimeout:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ranker == nil {
		r, err := ranking.New()
		if err != nil {
			return nil, err
		}
		s.ranker = r
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s, nil
}

// Start launches the warm-up workers, if enabled, and queues one listing
// description job per catalog item.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.warmupEnabled {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.warmupQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.warmupQueueSize))
		s.warmupPool = worker.NewPool(s.warmupWorkers, s.warmupQueue, s, worker.WithJobTimeout(s.explainTimeout))
		s.warmupPool.Start(runCtx)

		queued := 0
		for _, item := range s.catalog.Items() {
			if err := s.warmupQueue.Enqueue(ctx, model.DescriptionJob{ItemID: item.ID}); err != nil {
				s.logger.Warn(ctx, "warm-up queue rejected jobs",
					logger.Int("queued", queued),
					logger.Int("skipped", s.catalog.Len()-queued),
					logger.Error(err))
				break
			}
			queued++
		}
		// One-shot: workers exit once the queued jobs are drained.
		_ = s.warmupQueue.Close()
		go s.awaitWarmup(runCtx, s.warmupPool)
	}

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("items", s.catalog.Len()),
		logger.Int("top_k", s.topK),
		logger.Bool("warmup", s.warmupEnabled),
	)
	return nil
}

// awaitWarmup flags the warm-up as drained once every worker has exited.
func (s *Service) awaitWarmup(ctx context.Context, pool *worker.Pool) {
	if err := pool.Wait(ctx); err != nil {
		return
	}
	s.warmupDrained.Store(true)
	done, failed := pool.Processed()
	s.logger.Info(ctx, "warm-up drained",
		logger.Int("completed", int(done)),
		logger.Int("failed", int(failed)))
}

// Stop shuts the warm-up workers down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if s.warmupPool != nil {
		_ = s.warmupPool.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}

	s.started = false
	s.logger.Info(ctx, "recommendation service stopped")
}

// DefaultTopK returns the number of recommendations used when none is asked for.
func (s *Service) DefaultTopK() int {
	return s.topK
}

// MaxTopK returns the largest accepted k.
func (s *Service) MaxTopK() int {
	return s.maxTopK
}

// Recommend ranks the catalog against productID and explains the top k.
// It returns catalog.ErrNotFound for an unknown product,
// ranking.ErrInvalidArgument for k < 0 and ErrLimitExceeded for k > MaxTopK.
func (s *Service) Recommend(ctx context.Context, productID, k int) ([]types.Recommendation, error) {
	metrics.RecordRankingRequest()

	if k > s.maxTopK {
		metrics.RecordRankingError("limit_exceeded")
		return nil, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, k, s.maxTopK)
	}

	target, err := s.catalog.Lookup(productID)
	if err != nil {
		metrics.RecordRankingError("not_found")
		return nil, err
	}

	start := time.Now()
	items := s.catalog.Items()
	ranked, err := s.ranker.Rank(target, items, s.catalog.Sales(), k)
	if err != nil {
		metrics.RecordRankingError("invalid_argument")
		return nil, err
	}
	metrics.RecordRankingLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordRankingCandidates(len(items) - 1)

	prompts := make([]explain.Prompt, len(ranked))
	fallbacks := make([]string, len(ranked))
	for i, c := range ranked {
		prompts[i] = explain.RecommendationPrompt(target, c.Item)
		fallbacks[i] = s.fallback
	}
	texts := s.explainAll(ctx, prompts, fallbacks)

	out := make([]types.Recommendation, len(ranked))
	for i, c := range ranked {
		out[i] = types.FromScored(c, texts[i])
	}
	return out, nil
}

// Product returns one product with a rewritten description and its sales.
// When generation fails the deterministic enriched description is used.
func (s *Service) Product(ctx context.Context, productID int) (types.ProductDetail, error) {
	item, err := s.catalog.Lookup(productID)
	if err != nil {
		return types.ProductDetail{}, err
	}

	enriched := s.catalog.EnrichedDescription(item)
	text := s.explain(ctx, explain.DescriptionPrompt(enriched), enriched)

	return types.ProductDetail{
		Product:             types.FromItem(item),
		EnrichedDescription: text,
		Sales:               types.FromSales(s.catalog.SalesRecord(productID)),
	}, nil
}

// Products lists the catalog with one-line descriptions. Descriptions that
// cannot be generated fall back to the plain product description.
func (s *Service) Products(ctx context.Context) ([]types.ProductListing, error) {
	items := s.catalog.Items()

	prompts := make([]explain.Prompt, len(items))
	fallbacks := make([]string, len(items))
	for i, item := range items {
		prompts[i] = explain.ListingPrompt(s.catalog.EnrichedDescription(item))
		fallbacks[i] = item.Description
	}
	texts := s.explainAll(ctx, prompts, fallbacks)

	out := make([]types.ProductListing, len(items))
	for i, item := range items {
		out[i] = types.ProductListing{Product: types.FromItem(item), EnhancedDescription: texts[i]}
	}
	return out, nil
}

// Describe generates the listing description of one item so later listings
// are served from the explanation cache. Used by the warm-up workers.
func (s *Service) Describe(ctx context.Context, itemID int) error {
	item, err := s.catalog.Lookup(itemID)
	if err != nil {
		return err
	}
	_, err = s.explainer.Explain(ctx, explain.ListingPrompt(s.catalog.EnrichedDescription(item)))
	return err
}

// explainAll runs the prompts with bounded concurrency under the request
// deadline. Results keep the order of prompts.
func (s *Service) explainAll(ctx context.Context, prompts []explain.Prompt, fallbacks []string) []string {
	if s.explainDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.explainDeadline)
		defer cancel()
	}

	out := make([]string, len(prompts))
	var g errgroup.Group
	g.SetLimit(s.explainConcurrency)
	for i := range prompts {
		g.Go(func() error {
			out[i] = s.explain(ctx, prompts[i], fallbacks[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// explain runs one prompt under the per-call timeout and never fails.
func (s *Service) explain(ctx context.Context, p explain.Prompt, fallback string) string {
	kind := string(p.Kind)
	metrics.RecordExplanationRequest(kind)
	s.explanations.Add(1)

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.explainTimeout)
	defer cancel()

	text, err := s.explainer.Explain(callCtx, p)
	metrics.RecordExplanationLatency(kind, float64(time.Since(start).Milliseconds()))
	if err == nil {
		return text
	}

	reason := failureReason(err)
	metrics.RecordExplanationFailure(kind, reason)
	metrics.RecordExplanationFallback(kind)
	s.fallbacks.Add(1)
	if reason != "disabled" {
		s.logger.Warn(ctx, "explanation failed, using fallback",
			logger.String("kind", kind),
			logger.String("reason", reason),
			logger.Error(err))
	}
	return fallback
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, explain.ErrDisabled):
		return "disabled"
	case errors.Is(err, explain.ErrBreakerOpen):
		return "circuit_open"
	case errors.Is(err, explain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, explain.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, explain.ErrUpstream):
		return "upstream"
	default:
		return "unknown"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	simW, popW := s.ranker.Weights()
	stats := map[string]interface{}{
		"started":            s.started,
		"items":              s.catalog.Len(),
		"salesRecords":       len(s.catalog.Sales()),
		"topK":               s.topK,
		"maxTopK":            s.maxTopK,
		"similarityWeight":   simW,
		"popularityWeight":   popW,
		"explainConcurrency": s.explainConcurrency,
		"explanations":       s.explanations.Load(),
		"fallbacks":          s.fallbacks.Load(),
		"warmupEnabled":      s.warmupEnabled,
	}

	if s.warmupPool != nil {
		done, failed := s.warmupPool.Processed()
		stats["warmupWorkers"] = s.warmupPool.Size()
		stats["warmupQueueLength"] = s.warmupQueue.Len()
		stats["warmupCompleted"] = done
		stats["warmupFailed"] = failed
		stats["warmupDrained"] = s.warmupDrained.Load()
	}

	return stats
}
