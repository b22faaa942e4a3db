// Package catalog holds the read-only product snapshot shared by all requests.
//
// A Snapshot is built once at process start and passed explicitly to the
// service; nothing in it changes afterwards, so it needs no locking.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/reco/internal/domain/model"
)

// missingIngredientDetails is used when an ingredient has no description.
const missingIngredientDetails = "No details available"

// Snapshot is an immutable view of items, ingredient details and sales.
type Snapshot struct {
	items       []model.Item
	byID        map[int]int // item id -> position in items
	ingredients map[string]string
	sales       model.SalesIndex
}

// New builds a Snapshot. Item ids and sales records must be unique per item.
func New(items []model.Item, ingredients []model.IngredientInfo, sales []model.SalesRecord) (*Snapshot, error) {
	s := &Snapshot{
		items:       slices.Clone(items),
		byID:        make(map[int]int, len(items)),
		ingredients: make(map[string]string, len(ingredients)),
		sales:       make(model.SalesIndex, len(sales)),
	}

	for i, item := range s.items {
		if _, dup := s.byID[item.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateItem, item.ID)
		}
		s.byID[item.ID] = i
	}

	for _, info := range ingredients {
		s.ingredients[info.Name] = info.Properties
	}

	for _, record := range sales {
		if _, dup := s.sales[record.ItemID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSalesRecord, record.ItemID)
		}
		s.sales[record.ItemID] = record
	}

	return s, nil
}

// Items returns the catalog in its original order. Callers must not modify
// the returned slice.
func (s *Snapshot) Items() []model.Item {
	return s.items
}

// Len returns the number of items.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Lookup returns the item with the given id or ErrNotFound.
func (s *Snapshot) Lookup(id int) (model.Item, error) {
	pos, ok := s.byID[id]
	if !ok {
		return model.Item{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return s.items[pos], nil
}

// Sales returns the sales index. Callers must not modify it.
func (s *Snapshot) Sales() model.SalesIndex {
	return s.sales
}

// SalesRecord returns the sales history of one item, if any.
func (s *Snapshot) SalesRecord(id int) (model.SalesRecord, bool) {
	record, ok := s.sales[id]
	return record, ok
}

// IngredientProperties returns the description of an ingredient, if known.
func (s *Snapshot) IngredientProperties(name string) (string, bool) {
	props, ok := s.ingredients[name]
	return props, ok
}

// EnrichedDescription appends each ingredient's properties to the item
// description, e.g. "Soothing tea. This product contains: lavender - calming".
func (s *Snapshot) EnrichedDescription(item model.Item) string {
	parts := make([]string, len(item.Ingredients))
	for i, ing := range item.Ingredients {
		props, ok := s.ingredients[ing]
		if !ok {
			props = missingIngredientDetails
		}
		parts[i] = ing + " - " + props
	}
	return item.Description + " This product contains: " + strings.Join(parts, ", ")
}
