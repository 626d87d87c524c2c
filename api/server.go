/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

SECURITY NOTE:
  No authentication middleware. All endpoints are public; put the server
  behind an authenticating proxy in production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", h.ListSuppliers)
			r.Post("/", h.CreateSupplier)
			r.Get("/{id}", h.GetSupplier)
			r.Delete("/{id}", h.DeleteSupplier)
		})

		r.Route("/conditions", func(r chi.Router) {
			r.Get("/", h.ListConditions)
			r.Post("/", h.CreateCondition)
			r.Get("/{id}", h.GetCondition)
			r.Delete("/{id}", h.DeleteCondition)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/{id}", h.GetOrder)
		})

		r.Route("/installments", func(r chi.Router) {
			r.Post("/{id}/pay", h.PayInstallment)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Post("/preview", h.PreviewPlan)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/{id}", h.GetExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/generated", func(r chi.Router) {
			r.Get("/", h.ListGenerated)
			r.Post("/{id}/pay", h.PayGenerated)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/generate", h.TriggerGeneration)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", h.DashboardSummary)
		})
	})

	return r
}
