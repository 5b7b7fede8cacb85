package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/recipes/internal/recipe"
	"github.com/hyperengineering/recipes/internal/view"
)

// RecipesPath is where every successful write redirects.
const RecipesPath = "/recipes"

// homeRecentLimit is how many recipes the home page lists.
const homeRecentLimit = 5

// Handler implements the HTML and JSON handlers.
type Handler struct {
	recipes  recipe.Repository
	renderer view.Renderer
	version  string
}

// NewHandler creates a Handler. Dependencies are injected so tests can swap them.
func NewHandler(repo recipe.Repository, renderer view.Renderer, version string) *Handler {
	return &Handler{
		recipes:  repo,
		renderer: renderer,
		version:  version,
	}
}

// render writes a view, falling back to a plain 500 if the renderer fails.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.renderer.Render(w, r, status, name, data); err != nil {
		slog.Error("render failed",
			"view", name,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, view.Error, view.ErrorData{Status: status, Message: message})
}

// internalError logs err and shows a generic error page. Details never reach the client.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg,
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// recipeID parses the {id} URL parameter. The route pattern already restricts it to digits.
func recipeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Home handles GET /. It always renders the home view with 200.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	var data view.HomeData

	count, err := h.recipes.Count(r.Context())
	if err != nil {
		slog.Warn("home: count recipes failed", "error", err)
	}
	recent, err := h.recipes.List(r.Context(), recipe.ListOptions{Limit: homeRecentLimit})
	if err != nil {
		slog.Warn("home: list recent recipes failed", "error", err)
	}
	data.RecipeCount = count
	data.Recent = recent
	if data.Recent == nil {
		data.Recent = []recipe.Recipe{}
	}

	h.render(w, r, http.StatusOK, view.Home, data)
}

// ListRecipes handles GET /recipes
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	recipes, err := h.recipes.List(r.Context(), recipe.ListOptions{Query: q})
	if err != nil {
		h.internalError(w, r, "list recipes failed", err)
		return
	}
	h.render(w, r, http.StatusOK, view.Recipes, view.ListData{Query: q, Recipes: recipes})
}

// NewRecipeForm handles GET /recipes/new
func (h *Handler) NewRecipeForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.RecipeForm, view.FormData{})
}

// CreateRecipe handles POST /recipes
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	in, err := bindRecipe(w, r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	if errs := in.Validate(); len(errs) > 0 {
		h.render(w, r, http.StatusUnprocessableEntity, view.RecipeForm, view.FormData{Values: in, Errors: errs})
		return
	}

	id, err := h.recipes.Create(r.Context(), in)
	if err != nil {
		h.internalError(w, r, "create recipe failed", err)
		return
	}
	slog.Info("recipe created", "id", id)

	http.Redirect(w, r, RecipesPath, http.StatusFound)
}

// ShowRecipe handles GET /recipes/{id}
func (h *Handler) ShowRecipe(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, view.RecipePage, view.RecipeData{Recipe: rec})
}

// EditRecipeForm handles GET /recipes/{id}/edit
func (h *Handler) EditRecipeForm(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, view.RecipeForm, view.FormData{
		ID: rec.ID,
		Values: recipe.NewRecipe{
			Title:       rec.Title,
			Ingredients: rec.Ingredients,
			Method:      rec.Method,
		},
	})
}

// lookup loads the recipe named by {id} or writes a 404/500 page.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (recipe.Recipe, bool) {
	id, ok := recipeID(r)
	if !ok {
		h.NotFound(w, r)
		return recipe.Recipe{}, false
	}
	rec, found, err := h.recipes.FindByID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, "find recipe failed", err)
		return recipe.Recipe{}, false
	}
	if !found {
		h.renderError(w, r, http.StatusNotFound, "Recipe not found.")
		return recipe.Recipe{}, false
	}
	return rec, true
}

// UpdateRecipe handles POST /recipes/{id}
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	in, err := bindRecipe(w, r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	if errs := in.Validate(); len(errs) > 0 {
		h.render(w, r, http.StatusUnprocessableEntity, view.RecipeForm, view.FormData{ID: id, Values: in, Errors: errs})
		return
	}

	updated, err := h.recipes.Update(r.Context(), id, in)
	if err != nil {
		h.internalError(w, r, "update recipe failed", err)
		return
	}
	if !updated {
		h.renderError(w, r, http.StatusNotFound, "Recipe not found.")
		return
	}
	slog.Info("recipe updated", "id", id)

	http.Redirect(w, r, RecipesPath, http.StatusFound)
}

// DeleteRecipe handles POST /recipes/{id}/delete. A missing id still redirects.
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		// Digits too large for an id cannot name a row.
		http.Redirect(w, r, RecipesPath, http.StatusFound)
		return
	}

	if err := h.recipes.DeleteByID(r.Context(), id); err != nil {
		h.internalError(w, r, "delete recipe failed", err)
		return
	}
	slog.Info("recipe deleted", "id", id)

	http.Redirect(w, r, RecipesPath, http.StatusFound)
}

// NotFound renders the 404 page for unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found.")
}

// MethodNotAllowed renders the 405 page.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, "Method not allowed.")
}
