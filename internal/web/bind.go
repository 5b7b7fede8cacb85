package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/hyperengineering/recipes/internal/recipe"
)

// maxBodyBytes bounds create and update request bodies.
const maxBodyBytes = 1 << 20

var errBadBody = errors.New("malformed request body")

// bindRecipe reads title, ingredients and method from a JSON or form body.
func bindRecipe(w http.ResponseWriter, r *http.Request) (recipe.NewRecipe, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var in recipe.NewRecipe

	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, fmt.Errorf("%w: %v", errBadBody, err)
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return in, fmt.Errorf("%w: %v", errBadBody, err)
		}
		in = formRecipe(r)
	default:
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("%w: %v", errBadBody, err)
		}
		in = formRecipe(r)
	}

	return in, nil
}

func formRecipe(r *http.Request) recipe.NewRecipe {
	return recipe.NewRecipe{
		Title:       r.PostFormValue("title"),
		Ingredients: r.PostFormValue("ingredients"),
		Method:      r.PostFormValue("method"),
	}
}
