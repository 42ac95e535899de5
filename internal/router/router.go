// Package router sets up the HTTP routes and middleware chain for the
// bundle delivery server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"loadstone/internal/handlers"
	"loadstone/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// wired up. loadPath is where the delivery endpoint is mounted.
func New(loadPath string, delivery *handlers.Delivery) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check — no caching semantics.
	r.Get("/health", healthHandler)

	// The delivery endpoint. GET only: the endpoint is read-only and
	// responses are meant to be cacheable by intermediaries.
	r.Get(loadPath, delivery.Load)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
