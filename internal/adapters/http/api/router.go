package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type routerSettings struct {
	allowedOrigins []string
	rateRequests   int
	rateWindow     time.Duration
}

// RouterOption configures NewRouter.
type RouterOption func(*routerSettings)

// WithAllowedOrigins sets the CORS origin allow list.
func WithAllowedOrigins(origins []string) RouterOption {
	return func(s *routerSettings) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithRateLimit limits each client IP to requests per window. Zero requests
// disables the limit.
func WithRateLimit(requests int, window time.Duration) RouterOption {
	return func(s *routerSettings) {
		s.rateRequests = requests
		s.rateWindow = window
	}
}

// NewRouter builds the chi router with the global middleware stack and the
// business routes of srv.
func NewRouter(ctx context.Context, srv *Server, opts ...RouterOption) chi.Router {
	s := routerSettings{allowedOrigins: []string{"*"}}
	for _, opt := range opts {
		opt(&s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	if s.rateRequests > 0 && s.rateWindow > 0 {
		r.Use(httprate.LimitByIP(s.rateRequests, s.rateWindow))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	srv.Register(ctx, r)
	return r
}
