package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"banking-backoffice-api/internal/model"
)

// NewRouter wires every endpoint behind the shared middleware stack
func NewRouter(health *HealthHandler, accounts *AccountHandler, operators *OperatorHandler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestIDHeader)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "Route not found", model.ErrCodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", model.ErrCodeInvalidInput)
	})

	// Health check endpoint
	r.Method(http.MethodGet, "/healthz", health)

	// API v1 endpoints
	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts", accounts.Routes)
		r.Route("/account-numbers", accounts.AccountNumberRoutes)
		r.Route("/operators", operators.Routes)
	})

	return r
}
