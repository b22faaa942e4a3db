package popularity

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithTrendWindow sets which observations are compared for the trend.
// The window is validated by NewScorer.
func WithTrendWindow(start, end int) Option {
	return func(s *Scorer) {
		s.window = TrendWindow{Start: start, End: end}
	}
}
