package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hyperengineering/recipes/internal/recipe"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	RecipeCount int64  `json:"recipe_count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	count, err := h.recipes.Count(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		RecipeCount: count,
	})
}

// APIListRecipes handles GET /api/v1/recipes
func (h *Handler) APIListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context(), recipe.ListOptions{Query: r.URL.Query().Get("q")})
	if err != nil {
		slog.Error("list recipes failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// APIGetRecipe handles GET /api/v1/recipes/{id}
func (h *Handler) APIGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		MapStoreError(w, r, recipe.ErrNotFound)
		return
	}

	rec, found, err := h.recipes.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find recipe failed", "error", err, "id", id)
		MapStoreError(w, r, err)
		return
	}
	if !found {
		MapStoreError(w, r, recipe.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// APICreateRecipe handles POST /api/v1/recipes
func (h *Handler) APICreateRecipe(w http.ResponseWriter, r *http.Request) {
	in, err := bindRecipe(w, r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Request body could not be parsed")
		return
	}

	if errs := in.Validate(); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	id, err := h.recipes.Create(r.Context(), in)
	if err != nil {
		slog.Error("create recipe failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	slog.Info("recipe created", "id", id)

	w.Header().Set("Location", "/api/v1/recipes/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, recipe.Recipe{
		ID:          id,
		Title:       in.Title,
		Ingredients: in.Ingredients,
		Method:      in.Method,
	})
}
