// Package model contains domain models passed between layers.
package model

// Item is a catalog product. Items are immutable for the duration of a request.
type Item struct {
	ID          int
	Name        string
	Description string
	Price       float64
	Ingredients []string // ordered as listed on the product
	Effects     []string
}

// Tags returns the de-duplicated union of effects and ingredients.
func (i Item) Tags() map[string]struct{} {
	tags := make(map[string]struct{}, len(i.Effects)+len(i.Ingredients))
	for _, e := range i.Effects {
		tags[e] = struct{}{}
	}
	for _, in := range i.Ingredients {
		tags[in] = struct{}{}
	}
	return tags
}

// IngredientInfo describes one ingredient. Only used to enrich descriptions.
type IngredientInfo struct {
	Name       string
	Properties string
}

// DailySales is one observation in a sales history.
type DailySales struct {
	Date      string // date or index label, kept as provided
	UnitsSold int
}

// SalesRecord is the ordered daily sales history of one item.
type SalesRecord struct {
	ItemID int
	Daily  []DailySales
}

// SalesIndex maps item id to its sales record. At most one record per item.
type SalesIndex map[int]SalesRecord

// ScoredCandidate is an item with the scores computed for one ranking request.
type ScoredCandidate struct {
	Item       Item
	Similarity float64 // Jaccard index in [0,1]
	Popularity float64 // total sales plus trend, in units sold
	Score      float64 // weighted combination used for ordering
}

// DescriptionJob asks the warm-up workers to generate the listing description
// of one item ahead of the first request.
type DescriptionJob struct {
	ItemID int
}
