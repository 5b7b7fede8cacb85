package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(h.RecoveryMiddleware)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/", h.Home)

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.ListRecipes)
		r.Post("/", h.CreateRecipe)
		r.Get("/new", h.NewRecipeForm)
		r.Get("/{id:[0-9]+}", h.ShowRecipe)
		r.Post("/{id:[0-9]+}", h.UpdateRecipe)
		r.Get("/{id:[0-9]+}/edit", h.EditRecipeForm)
		r.Post("/{id:[0-9]+}/delete", h.DeleteRecipe)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/recipes", h.APIListRecipes)
		r.Post("/recipes", h.APICreateRecipe)
		r.Get("/recipes/{id:[0-9]+}", h.APIGetRecipe)
	})

	return r
}
