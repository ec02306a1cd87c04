/*
server.go - HTTP router and middleware configuration

Chi router with the standard middleware stack: request logging, panic
recovery, request IDs, CORS for local tooling. All routes are read-only;
there is nothing to authenticate yet.
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Route("/listings", func(r chi.Router) {
			r.Get("/", h.ListListings)
			r.Get("/{id}", h.GetListing)
			r.Get("/{id}/months", h.ListMonths)
			r.Get("/{id}/calendar", h.ListCalendar)
		})
	})

	return r
}
