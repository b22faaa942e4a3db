package ranking

import "github.com/okian/reco/internal/domain/popularity"

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithWeights sets the multipliers applied to similarity and popularity.
func WithWeights(similarityWeight, popularityWeight float64) Option {
	return func(r *Ranker) {
		r.similarityWeight = similarityWeight
		r.popularityWeight = popularityWeight
	}
}

// WithPopularityScorer replaces the default popularity scorer, typically to
// use a different trend window.
func WithPopularityScorer(s *popularity.Scorer) Option {
	return func(r *Ranker) {
		if s != nil {
			r.popularity = s
		}
	}
}
