package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/reco/internal/domain/catalog"
	"github.com/okian/reco/internal/domain/ranking"
	"github.com/okian/reco/internal/domain/types"
)

// RecommendationDependencies defines the interface for ranking operations.
type RecommendationDependencies interface {
	Recommend(ctx context.Context, productID, k int) ([]Recommendation, error)
	DefaultTopK() int
	MaxTopK() int
}

// RecommendationHandler handles recommendation requests.
type RecommendationHandler struct {
	deps RecommendationDependencies
}

// NewRecommendationHandler creates a new recommendation handler.
func NewRecommendationHandler(deps RecommendationDependencies) *RecommendationHandler {
	return &RecommendationHandler{deps: deps}
}

// HandleGetRecommendations handles GET /recommendations/{productID}?k=N.
func (h *RecommendationHandler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recommendations"

	id, err := productIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	k := h.deps.DefaultTopK()
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrInvalidLimit))
			return
		}
	}
	if k > h.deps.MaxTopK() {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrLimitExceeded))
		return
	}

	recs, err := h.deps.Recommend(r.Context(), id, k)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return
	case errors.Is(err, ranking.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	default:
		writeInternal(r, w, Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, types.RecommendationsResponse{Recommendations: recs})
}
