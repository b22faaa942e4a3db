package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound             = errors.New("product not found")
	ErrDuplicateItem        = errors.New("duplicate product id")
	ErrDuplicateSalesRecord = errors.New("duplicate sales record")
)
