package dataset

import "github.com/okian/reco/internal/domain/model"

// productRecord is one entry of the products file.
type productRecord struct {
	ID          int      `json:"id" validate:"gte=0"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Ingredients []string `json:"ingredients" validate:"dive,required"`
	Effects     []string `json:"effects" validate:"dive,required"`
}

func (r productRecord) toModel() model.Item {
	return model.Item{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Ingredients: r.Ingredients,
		Effects:     r.Effects,
	}
}

// ingredientRecord is one entry of the ingredients file.
type ingredientRecord struct {
	Name       string `json:"name" validate:"required"`
	Properties string `json:"properties"`
}

func (r ingredientRecord) toModel() model.IngredientInfo {
	return model.IngredientInfo{Name: r.Name, Properties: r.Properties}
}

// salesRecord is one entry of the sales file.
type salesRecord struct {
	ProductID  int                `json:"product_id" validate:"gte=0"`
	DailySales []dailySalesRecord `json:"daily_sales" validate:"dive"`
}

type dailySalesRecord struct {
	Date      string `json:"date"`
	UnitsSold int    `json:"units_sold" validate:"gte=0"`
}

func (r salesRecord) toModel() model.SalesRecord {
	daily := make([]model.DailySales, len(r.DailySales))
	for i, d := range r.DailySales {
		daily[i] = model.DailySales{Date: d.Date, UnitsSold: d.UnitsSold}
	}
	return model.SalesRecord{ItemID: r.ProductID, Daily: daily}
}
