// Package view renders named HTML views for the web layer.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/hyperengineering/recipes/internal/recipe"
	"github.com/hyperengineering/recipes/internal/validation"
)

// View names understood by TemplRenderer.
const (
	Home       = "home"
	Recipes    = "recipes"
	RecipePage = "recipe"
	RecipeForm = "recipe_form"
	Error      = "error"
)

var (
	ErrUnknownView = errors.New("unknown view")
	ErrBadData     = errors.New("view data has the wrong type")
)

// Renderer turns a view name plus its payload into the response body.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) error
}

// HomeData is the payload for the home view.
type HomeData struct {
	RecipeCount int64           `json:"recipe_count"`
	Recent      []recipe.Recipe `json:"recent"`
}

// ListData is the payload for the recipes view.
type ListData struct {
	Query   string          `json:"query,omitempty"`
	Recipes []recipe.Recipe `json:"recipes"`
}

// RecipeData is the payload for the recipe view.
type RecipeData struct {
	Recipe recipe.Recipe `json:"recipe"`
}

// FormData is the payload for the recipe_form view. ID is zero for a new recipe.
type FormData struct {
	ID     int64                        `json:"id,omitempty"`
	Values recipe.NewRecipe             `json:"values"`
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// ErrorData is the payload for the error view.
type ErrorData struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// page pairs a document title with the body component.
type page struct {
	title string
	body  templ.Component
}

type viewFunc func(data any) (page, error)

// TemplRenderer renders views built from templ components inside a shared layout.
type TemplRenderer struct {
	views map[string]viewFunc
}

// NewTemplRenderer returns a renderer with all application views registered.
func NewTemplRenderer() *TemplRenderer {
	return &TemplRenderer{
		views: map[string]viewFunc{
			Home:       typed(homePage),
			Recipes:    typed(listPage),
			RecipePage: typed(recipePage),
			RecipeForm: typed(formPage),
			Error:      typed(errorPage),
		},
	}
}

// typed adapts a page builder for one payload type. Pointer payloads are accepted too.
func typed[T any](build func(T) page) viewFunc {
	return func(data any) (page, error) {
		switch v := data.(type) {
		case T:
			return build(v), nil
		case *T:
			if v != nil {
				return build(*v), nil
			}
		}
		var zero T
		return page{}, fmt.Errorf("%w: want %T, got %T", ErrBadData, zero, data)
	}
}

// Render writes the full HTML document. Nothing is written if rendering fails.
func (t *TemplRenderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) error {
	build, ok := t.views[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	p, err := build(data)
	if err != nil {
		return fmt.Errorf("view %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := layout(p.title, p.body).Render(r.Context(), &buf); err != nil {
		return fmt.Errorf("render %q: %w", name, err)
	}

	if status <= 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(buf.Bytes())
	return err
}
