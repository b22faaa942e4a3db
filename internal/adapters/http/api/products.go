package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/reco/internal/domain/catalog"
)

// ProductDependencies defines the interface for product reads.
type ProductDependencies interface {
	Product(ctx context.Context, productID int) (ProductDetail, error)
	Products(ctx context.Context) ([]ProductListing, error)
}

// ProductHandler handles product requests.
type ProductHandler struct {
	deps ProductDependencies
}

// NewProductHandler creates a new product handler.
func NewProductHandler(deps ProductDependencies) *ProductHandler {
	return &ProductHandler{deps: deps}
}

// HandleGetProduct handles GET /product/{productID}.
func (h *ProductHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_product"

	id, err := productIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	detail, err := h.deps.Product(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeInternal(r, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleListProducts handles GET /products.
func (h *ProductHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_products"

	list, err := h.deps.Products(r.Context())
	if err != nil {
		writeInternal(r, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}
