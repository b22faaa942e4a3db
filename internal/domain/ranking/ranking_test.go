package ranking_test

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/reco/internal/domain/model"
	"github.com/okian/reco/internal/domain/popularity"
	"github.com/okian/reco/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func sales(id int, units ...int) model.SalesRecord {
	daily := make([]model.DailySales, len(units))
	for i, u := range units {
		daily[i] = model.DailySales{UnitsSold: u}
	}
	return model.SalesRecord{ItemID: id, Daily: daily}
}

func ids(scored []model.ScoredCandidate) []int {
	out := make([]int, len(scored))
	for i, s := range scored {
		out[i] = s.Item.ID
	}
	return out
}

func TestRanker_Rank(t *testing.T) {
	Convey("Given a default ranker and a small catalog", t, func() {
		r, err := ranking.New()
		So(err, ShouldBeNil)

		target := model.Item{ID: 1, Name: "Sleep Tea", Effects: []string{"calm", "sleep"}, Ingredients: []string{"lavender"}}
		catalog := []model.Item{
			target,
			{ID: 2, Name: "Calm Drops", Effects: []string{"calm"}, Ingredients: []string{"lavender"}},
			{ID: 3, Name: "Energy Gummies", Effects: []string{"energy"}, Ingredients: []string{"guarana"}},
			{ID: 4, Name: "Night Balm", Effects: []string{"sleep"}, Ingredients: []string{"chamomile"}},
			{ID: 5, Name: "Focus Caps", Effects: []string{"focus"}},
		}
		index := model.SalesIndex{
			3: sales(3, 10, 20, 30, 40),
			4: sales(4, 1, 1, 1, 1),
		}

		Convey("When ranking with k smaller than the candidate count", func() {
			out, err := r.Rank(target, catalog, index, 2)

			Convey("Then exactly k entries should be returned best first", func() {
				So(err, ShouldBeNil)
				So(ids(out), ShouldResemble, []int{3, 4})
			})

			Convey("And scores should combine similarity and popularity", func() {
				So(out[0].Similarity, ShouldEqual, 0.0)
				So(out[0].Popularity, ShouldEqual, 130.0)
				So(out[0].Score, ShouldEqual, 130.0)
				So(out[1].Similarity, ShouldAlmostEqual, 0.25, 1e-9)
				So(out[1].Score, ShouldAlmostEqual, 4.25, 1e-9)
			})
		})

		Convey("When k exceeds the candidate count", func() {
			out, err := r.Rank(target, catalog, index, 10)

			Convey("Then every candidate except the target should be returned", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 4)
				So(ids(out), ShouldResemble, []int{3, 4, 2, 5})
			})
		})

		Convey("When the target appears in the candidate pool", func() {
			pool := append([]model.Item{target, target}, catalog...)
			out, err := r.Rank(target, pool, index, 10)

			Convey("Then it should never be returned", func() {
				So(err, ShouldBeNil)
				So(ids(out), ShouldNotContain, 1)
			})
		})

		Convey("When k is zero", func() {
			out, err := r.Rank(target, catalog, index, 0)

			Convey("Then an empty result should be returned", func() {
				So(err, ShouldBeNil)
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When k is negative", func() {
			out, err := r.Rank(target, catalog, index, -1)

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, ranking.ErrInvalidArgument)
				So(out, ShouldBeNil)
			})
		})

		Convey("When there are no candidates", func() {
			out, err := r.Rank(target, nil, index, 3)

			Convey("Then an empty result should be returned", func() {
				So(err, ShouldBeNil)
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When ranking the same inputs twice", func() {
			first, _ := r.Rank(target, catalog, index, 4)
			second, _ := r.Rank(target, catalog, index, 4)

			Convey("Then the result should be deterministic and inputs untouched", func() {
				So(second, ShouldResemble, first)
				So(catalog[0].ID, ShouldEqual, 1)
				So(len(index), ShouldEqual, 2)
			})
		})
	})

	Convey("Given candidates whose combined scores are 5, 5 and 3", t, func() {
		r, err := ranking.New()
		So(err, ShouldBeNil)

		target := model.Item{ID: 100}
		x := model.Item{ID: 1, Name: "X"}
		y := model.Item{ID: 2, Name: "Y"}
		z := model.Item{ID: 3, Name: "Z"}
		index := model.SalesIndex{
			1: sales(1, 2, 3),
			2: sales(2, 5),
			3: sales(3, 3),
		}

		Convey("When the input order is X, Y, Z", func() {
			all, err := r.Rank(target, []model.Item{x, y, z}, index, 3)
			So(err, ShouldBeNil)
			top, err := r.Rank(target, []model.Item{x, y, z}, index, 2)
			So(err, ShouldBeNil)

			Convey("Then ties should keep input order", func() {
				So(ids(all), ShouldResemble, []int{1, 2, 3})
				So(ids(top), ShouldResemble, []int{1, 2})
			})
		})

		Convey("When the input order is Y, X, Z", func() {
			top, err := r.Rank(target, []model.Item{y, x, z}, index, 2)
			So(err, ShouldBeNil)

			Convey("Then Y should stay ahead of X", func() {
				So(ids(top), ShouldResemble, []int{2, 1})
			})
		})
	})

	Convey("Given a ranker that ignores popularity", t, func() {
		r, err := ranking.New(ranking.WithWeights(1, 0))
		So(err, ShouldBeNil)

		sim, pop := r.Weights()
		So(sim, ShouldEqual, 1.0)
		So(pop, ShouldEqual, 0.0)

		target := model.Item{ID: 1, Effects: []string{"calm"}, Ingredients: []string{"lavender"}}
		near := model.Item{ID: 2, Effects: []string{"calm"}, Ingredients: []string{"lavender"}}
		popular := model.Item{ID: 3, Effects: []string{"energy"}}
		index := model.SalesIndex{3: sales(3, 100, 100, 100, 100)}

		Convey("Then similarity alone should decide the order", func() {
			out, err := r.Rank(target, []model.Item{popular, near}, index, 2)
			So(err, ShouldBeNil)
			So(ids(out), ShouldResemble, []int{2, 3})
			So(out[0].Score, ShouldEqual, 1.0)
		})
	})

	Convey("Given a ranker with a custom trend window", t, func() {
		scorer, err := popularity.NewScorer(popularity.WithTrendWindow(0, 1))
		So(err, ShouldBeNil)
		r, err := ranking.New(ranking.WithPopularityScorer(scorer))
		So(err, ShouldBeNil)

		index := model.SalesIndex{2: sales(2, 1, 5)}

		Convey("Then popularity should use that window", func() {
			out, err := r.Rank(model.Item{ID: 1}, []model.Item{{ID: 2}}, index, 1)
			So(err, ShouldBeNil)
			So(out[0].Popularity, ShouldEqual, 10.0)
		})
	})

	Convey("Given non-finite weights", t, func() {
		r, err := ranking.New(ranking.WithWeights(math.NaN(), 1))

		Convey("Then the ranker should not be created", func() {
			So(err, ShouldEqual, ranking.ErrInvalidWeight)
			So(r, ShouldBeNil)
		})
	})
}

func TestRanker_ConcurrentUse(t *testing.T) {
	Convey("Given one ranker, candidate list and sales index shared by many goroutines", t, func() {
		scorer, err := popularity.NewScorer(popularity.WithTrendWindow(0, 2))
		So(err, ShouldBeNil)
		r, err := ranking.New(ranking.WithWeights(2, 0.5), ranking.WithPopularityScorer(scorer))
		So(err, ShouldBeNil)

		items := []model.Item{
			{ID: 1, Effects: []string{"calm", "sleep"}, Ingredients: []string{"lavender"}},
			{ID: 2, Effects: []string{"calm"}, Ingredients: []string{"lavender"}},
			{ID: 3, Effects: []string{"energy"}},
			{ID: 4, Effects: []string{"sleep"}, Ingredients: []string{"chamomile"}},
			{ID: 5, Effects: []string{"focus"}},
		}
		index := model.SalesIndex{
			2: sales(2, 1, 2, 3),
			3: sales(3, 10, 5, 1),
			5: sales(5, 4, 4, 4),
		}
		original := ids(toScored(items))

		want, err := r.Rank(items[0], items, index, 3)
		So(err, ShouldBeNil)
		wantIDs := ids(want)

		Convey("When Rank runs concurrently for different targets", func() {
			var (
				wg         sync.WaitGroup
				mismatches atomic.Int32
			)
			for g := 0; g < 16; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						target := items[(g+i)%len(items)]
						got, err := r.Rank(target, items, index, 3)
						if err != nil {
							mismatches.Add(1)
							continue
						}
						if target.ID == items[0].ID && !slices.Equal(ids(got), wantIDs) {
							mismatches.Add(1)
						}
						for _, c := range got {
							if c.Item.ID == target.ID {
								mismatches.Add(1)
							}
						}
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every result should match the serial ranking and inputs stay untouched", func() {
				So(mismatches.Load(), ShouldEqual, 0)
				So(ids(toScored(items)), ShouldResemble, original)
				So(len(index), ShouldEqual, 3)
			})
		})
	})
}

func toScored(items []model.Item) []model.ScoredCandidate {
	out := make([]model.ScoredCandidate, len(items))
	for i, it := range items {
		out[i] = model.ScoredCandidate{Item: it}
	}
	return out
}
