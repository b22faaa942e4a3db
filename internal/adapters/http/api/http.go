// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/okian/reco/internal/domain/types"
	"github.com/okian/reco/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecommendationDependencies
	ProductDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler         *HealthHandler
	statsHandler          *StatsHandler
	recommendationHandler *RecommendationHandler
	productHandler        *ProductHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:         NewHealthHandler(),
		statsHandler:          NewStatsHandler(statsProvider),
		recommendationHandler: NewRecommendationHandler(deps),
		productHandler:        NewProductHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/recommendations/{productID}", MetricsMiddleware(s.recommendationHandler.HandleGetRecommendations, "recommendations"))
	r.Get("/product/{productID}", MetricsMiddleware(s.productHandler.HandleGetProduct, "product"))
	r.Get("/products", MetricsMiddleware(s.productHandler.HandleListProducts, "products"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeInternal logs err with its operation and answers 500 without
// exposing the cause.
func writeInternal(r *http.Request, w http.ResponseWriter, err error) {
	logger.Get().Error(r.Context(), "request failed",
		logger.String("op", opOf(err)),
		logger.String("path", r.URL.Path),
		logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", nil)
}

// productIDParam parses the {productID} path segment.
func productIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		return 0, ErrInvalidID
	}
	return id, nil
}

// Response aliases keep handler signatures short.
type (
	Recommendation = types.Recommendation
	ProductDetail  = types.ProductDetail
	ProductListing = types.ProductListing
)
