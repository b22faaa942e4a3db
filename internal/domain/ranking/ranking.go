// Package ranking orders related items for a target item.
//
// The combined score is similarityWeight*similarity + popularityWeight*popularity.
// Similarity lives in [0,1] while popularity is measured in units sold, so with
// the default weights of 1.0 popularity dominates and similarity mostly breaks
// ties between equally selling items. Weights are exposed so the balance can be
// tuned; scores are deliberately not normalized.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/reco/internal/domain/model"
	"github.com/okian/reco/internal/domain/popularity"
	"github.com/okian/reco/internal/domain/similarity"
)

// Default weights reproduce the plain sum of both scores.
const (
	defaultSimilarityWeight = 1.0
	defaultPopularityWeight = 1.0
)

// Ranker composes similarity and popularity into a top-K list.
// A Ranker holds no mutable state and may be shared across goroutines.
type Ranker struct {
	similarityWeight float64
	popularityWeight float64
	popularity       *popularity.Scorer
}

// New creates a Ranker with the given options.
func New(opts ...Option) (*Ranker, error) {
	r := &Ranker{
		similarityWeight: defaultSimilarityWeight,
		popularityWeight: defaultPopularityWeight,
	}

	for _, opt := range opts {
		opt(r)
	}

	if !finite(r.similarityWeight) || !finite(r.popularityWeight) {
		return nil, ErrInvalidWeight
	}

	if r.popularity == nil {
		scorer, err := popularity.NewScorer()
		if err != nil {
			return nil, err
		}
		r.popularity = scorer
	}

	return r, nil
}

// Weights returns the similarity and popularity weights.
func (r *Ranker) Weights() (similarityWeight, popularityWeight float64) {
	return r.similarityWeight, r.popularityWeight
}

// Rank scores every candidate against target and returns at most k of them,
// best first. Candidates sharing the target's id are skipped. Equal scores keep
// their input order. Inputs are never modified.
func (r *Ranker) Rank(target model.Item, candidates []model.Item, index model.SalesIndex, k int) ([]model.ScoredCandidate, error) {
	if k < 0 {
		return nil, ErrInvalidArgument
	}

	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		sim := similarity.Jaccard(target, c)
		pop := r.popularity.Score(c.ID, index)
		scored = append(scored, model.ScoredCandidate{
			Item:       c,
			Similarity: sim,
			Popularity: pop,
			Score:      r.similarityWeight*sim + r.popularityWeight*pop,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
