// Package recipe maps recipe intents onto SQL statements against the recipes table.
package recipe

import (
	"errors"

	"github.com/hyperengineering/recipes/internal/validation"
)

// ErrNotFound is returned by operations that require an existing recipe.
var ErrNotFound = errors.New("recipe not found")

// Recipe is a stored recipe. ID is assigned by the store on insert.
type Recipe struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Ingredients string `json:"ingredients"`
	Method      string `json:"method"`
}

// NewRecipe holds the user-supplied fields for create and update.
type NewRecipe struct {
	Title       string `json:"title"`
	Ingredients string `json:"ingredients"`
	Method      string `json:"method"`
}

// Validate returns every field problem, or nil.
func (n NewRecipe) Validate() []validation.ValidationError {
	return validation.ValidateRecipe(n.Title, n.Ingredients, n.Method)
}

// ListOptions filters and bounds List.
type ListOptions struct {
	// Query matches titles containing it, case-insensitively. Empty matches all.
	Query string
	// Limit caps the result size. Zero or less means no limit.
	Limit int
}
