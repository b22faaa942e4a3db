// Package dataset loads the catalog snapshot from the products, ingredients
// and sales JSON files.
package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/okian/reco/internal/domain/catalog"
	"github.com/okian/reco/internal/domain/model"
	"github.com/okian/reco/pkg/logger"
	"github.com/okian/reco/pkg/metrics"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Paths names the dataset files. Ingredients and Sales may be empty, in which
// case the catalog has no ingredient details or no sales history.
type Paths struct {
	Products    string
	Ingredients string
	Sales       string
}

// LoadFiles reads all dataset files and builds a catalog snapshot.
func LoadFiles(ctx context.Context, paths Paths) (*catalog.Snapshot, error) {
	start := time.Now()
	if paths.Products == "" {
		return nil, ErrMissingPath
	}

	var products []productRecord
	if err := decodeFile(paths.Products, &products); err != nil {
		return nil, err
	}
	var ingredients []ingredientRecord
	if paths.Ingredients != "" {
		if err := decodeFile(paths.Ingredients, &ingredients); err != nil {
			return nil, err
		}
	}
	var sales []salesRecord
	if paths.Sales != "" {
		if err := decodeFile(paths.Sales, &sales); err != nil {
			return nil, err
		}
	}

	snap, err := build(products, ingredients, sales)
	if err != nil {
		return nil, err
	}

	metrics.UpdateCatalogSize(snap.Len(), len(snap.Sales()))
	logger.Get().Info(ctx, "catalog loaded",
		logger.Int("items", snap.Len()),
		logger.Int("ingredients", len(ingredients)),
		logger.Int("sales_records", len(sales)),
		logger.Duration("took", time.Since(start)))
	return snap, nil
}

// Decode builds a snapshot from already opened sources. A nil ingredients or
// sales reader is treated as an empty list.
func Decode(products, ingredients, sales io.Reader) (*catalog.Snapshot, error) {
	var p []productRecord
	if err := decode(products, "products", &p); err != nil {
		return nil, err
	}
	var in []ingredientRecord
	if ingredients != nil {
		if err := decode(ingredients, "ingredients", &in); err != nil {
			return nil, err
		}
	}
	var s []salesRecord
	if sales != nil {
		if err := decode(sales, "sales", &s); err != nil {
			return nil, err
		}
	}
	return build(p, in, s)
}

func decodeFile(path string, dst any) error {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	defer func() { _ = f.Close() }()
	return decode(f, path, dst)
}

func decode(r io.Reader, name string, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	return nil
}

func build(products []productRecord, ingredients []ingredientRecord, sales []salesRecord) (*catalog.Snapshot, error) {
	v := getValidator()

	items := make([]model.Item, len(products))
	for i := range products {
		if err := v.Struct(&products[i]); err != nil {
			return nil, fmt.Errorf("%w: products[%d]: %w", ErrInvalidRecord, i, err)
		}
		items[i] = products[i].toModel()
	}

	infos := make([]model.IngredientInfo, len(ingredients))
	for i := range ingredients {
		if err := v.Struct(&ingredients[i]); err != nil {
			return nil, fmt.Errorf("%w: ingredients[%d]: %w", ErrInvalidRecord, i, err)
		}
		infos[i] = ingredients[i].toModel()
	}

	records := make([]model.SalesRecord, len(sales))
	for i := range sales {
		if err := v.Struct(&sales[i]); err != nil {
			return nil, fmt.Errorf("%w: sales[%d]: %w", ErrInvalidRecord, i, err)
		}
		records[i] = sales[i].toModel()
	}

	return catalog.New(items, infos, records)
}
