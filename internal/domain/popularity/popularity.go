// Package popularity scores items by their recent sales volume and momentum.
package popularity

import "github.com/okian/reco/internal/domain/model"

// Default trend sampling window: day 3 compared against day 0.
const (
	defaultTrendStart = 0
	defaultTrendEnd   = 3
)

// TrendWindow names the two observations whose difference is the trend.
type TrendWindow struct {
	Start int
	End   int
}

func (w TrendWindow) valid() bool {
	return w.Start >= 0 && w.End > w.Start
}

// Scorer computes total sales plus trend for one item. It is stateless apart
// from its window and is safe for concurrent use.
type Scorer struct {
	window TrendWindow
}

// NewScorer creates a Scorer. It fails with ErrInvalidTrendWindow when the
// configured window cannot be sampled.
func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		window: TrendWindow{Start: defaultTrendStart, End: defaultTrendEnd},
	}

	for _, opt := range opts {
		opt(s)
	}

	if !s.window.valid() {
		return nil, ErrInvalidTrendWindow
	}
	return s, nil
}

// Window returns the configured trend window.
func (s *Scorer) Window() TrendWindow {
	return s.window
}

// Score returns the popularity of itemID. Items without a sales record score 0.
// When the history is too short to sample the window the trend counts as 0.
func (s *Scorer) Score(itemID int, index model.SalesIndex) float64 {
	record, ok := index[itemID]
	if !ok {
		return 0
	}

	total := 0
	for _, day := range record.Daily {
		total += day.UnitsSold
	}

	return float64(total) + s.trend(record.Daily)
}

func (s *Scorer) trend(daily []model.DailySales) float64 {
	if len(daily) <= s.window.End {
		return 0
	}
	return float64(daily[s.window.End].UnitsSold - daily[s.window.Start].UnitsSold)
}
