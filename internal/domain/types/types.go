// Package types contains the response shapes returned by the HTTP API.
package types

import "github.com/okian/reco/internal/domain/model"

// Product is the public view of a catalog item.
type Product struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Ingredients []string `json:"ingredients"`
	Effects     []string `json:"effects"`
}

// Recommendation is a ranked product with its scores and a one-line reason.
type Recommendation struct {
	Product
	Similarity          float64 `json:"similarity"`
	SalesScore          float64 `json:"salesScore"`
	Score               float64 `json:"score"`
	EnhancedDescription string  `json:"enhanced_description"`
}

// RecommendationsResponse wraps the ranked list returned for one product.
type RecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// ProductListing is a product with a short generated description.
type ProductListing struct {
	Product
	EnhancedDescription string `json:"enhanced_description"`
}

// DailySales is one day of sales in a product detail response.
type DailySales struct {
	Date      string `json:"date"`
	UnitsSold int    `json:"units_sold"`
}

// Sales is the sales history of a product. It encodes as {} when the
// product has no history.
type Sales struct {
	ProductID  int          `json:"product_id,omitempty"`
	DailySales []DailySales `json:"daily_sales,omitempty"`
}

// ProductDetail is a product with its enriched description and sales.
type ProductDetail struct {
	Product
	EnrichedDescription string `json:"enrichedDescription"`
	Sales               Sales  `json:"sales"`
}

// FromItem converts a catalog item to its public view.
func FromItem(item model.Item) Product {
	ingredients := item.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	effects := item.Effects
	if effects == nil {
		effects = []string{}
	}
	return Product{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Ingredients: ingredients,
		Effects:     effects,
	}
}

// FromScored converts a ranked candidate and its explanation.
func FromScored(c model.ScoredCandidate, explanation string) Recommendation {
	return Recommendation{
		Product:             FromItem(c.Item),
		Similarity:          c.Similarity,
		SalesScore:          c.Popularity,
		Score:               c.Score,
		EnhancedDescription: explanation,
	}
}

// FromSales converts a sales record. ok=false yields the empty value.
func FromSales(record model.SalesRecord, ok bool) Sales {
	if !ok {
		return Sales{}
	}
	daily := make([]DailySales, len(record.Daily))
	for i, d := range record.Daily {
		daily[i] = DailySales{Date: d.Date, UnitsSold: d.UnitsSold}
	}
	return Sales{ProductID: record.ItemID, DailySales: daily}
}
