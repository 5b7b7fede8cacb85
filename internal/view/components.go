package view

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/hyperengineering/recipes/internal/recipe"
	"github.com/hyperengineering/recipes/internal/validation"
)

// html writes markup and escaped text, keeping the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) child(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

func component(fn func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		fn(ctx, h)
		return h.err
	})
}

func recipePath(id int64) string {
	return "/recipes/" + strconv.FormatInt(id, 10)
}

func layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(title)
		h.raw(` · Recipes</title></head><body><header><nav>`)
		h.raw(`<a href="/">Home</a> <a href="/recipes">All recipes</a> <a href="/recipes/new">New recipe</a>`)
		h.raw(`</nav></header><main>`)
		h.child(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

func recipeList(recipes []recipe.Recipe) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<ul class="recipes">`)
		for _, r := range recipes {
			h.raw(`<li><a href="`)
			h.text(recipePath(r.ID))
			h.raw(`">`)
			h.text(r.Title)
			h.raw(`</a>`)
			h.raw(`<form method="post" action="`)
			h.text(recipePath(r.ID) + "/delete")
			h.raw(`"><button type="submit">Delete</button></form></li>`)
		}
		h.raw(`</ul>`)
	})
}

func homePage(d HomeData) page {
	return page{title: "Home", body: component(func(ctx context.Context, h *html) {
		h.raw(`<h1>Recipes</h1><p>`)
		h.text(fmt.Sprintf("%d recipes saved.", d.RecipeCount))
		h.raw(`</p>`)
		if len(d.Recent) == 0 {
			h.raw(`<p>Nothing here yet. <a href="/recipes/new">Add the first recipe</a>.</p>`)
			return
		}
		h.raw(`<h2>Recently added</h2>`)
		h.child(ctx, recipeList(d.Recent))
	})}
}

func listPage(d ListData) page {
	return page{title: "All recipes", body: component(func(ctx context.Context, h *html) {
		h.raw(`<h1>All recipes</h1><form method="get" action="/recipes">`)
		h.raw(`<input type="search" name="q" placeholder="Search titles" value="`)
		h.text(d.Query)
		h.raw(`"><button type="submit">Search</button></form>`)
		if len(d.Recipes) == 0 {
			h.raw(`<p>No recipes found.</p>`)
			return
		}
		h.child(ctx, recipeList(d.Recipes))
	})}
}

func recipePage(d RecipeData) page {
	r := d.Recipe
	return page{title: r.Title, body: component(func(_ context.Context, h *html) {
		h.raw(`<article><h1>`)
		h.text(r.Title)
		h.raw(`</h1><h2>Ingredients</h2><pre class="ingredients">`)
		h.text(r.Ingredients)
		h.raw(`</pre><h2>Method</h2><pre class="method">`)
		h.text(r.Method)
		h.raw(`</pre></article><p><a href="`)
		h.text(recipePath(r.ID) + "/edit")
		h.raw(`">Edit</a></p><form method="post" action="`)
		h.text(recipePath(r.ID) + "/delete")
		h.raw(`"><button type="submit">Delete</button></form>`)
	})}
}

func fieldErrors(errs []validation.ValidationError, field string) []string {
	var out []string
	for _, e := range errs {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

func formField(h *html, d FormData, name, label, value string, multiline bool) {
	h.raw(`<p><label for="`)
	h.text(name)
	h.raw(`">`)
	h.text(label)
	h.raw(`</label>`)
	if multiline {
		h.raw(`<textarea id="`)
		h.text(name)
		h.raw(`" name="`)
		h.text(name)
		h.raw(`" rows="8" required>`)
		h.text(value)
		h.raw(`</textarea>`)
	} else {
		h.raw(`<input type="text" id="`)
		h.text(name)
		h.raw(`" name="`)
		h.text(name)
		h.raw(`" required value="`)
		h.text(value)
		h.raw(`">`)
	}
	for _, msg := range fieldErrors(d.Errors, name) {
		h.raw(`<span class="error">`)
		h.text(label + " " + msg)
		h.raw(`</span>`)
	}
	h.raw(`</p>`)
}

func formPage(d FormData) page {
	title, action := "New recipe", "/recipes"
	if d.ID != 0 {
		title, action = "Edit recipe", recipePath(d.ID)
	}
	return page{title: title, body: component(func(_ context.Context, h *html) {
		h.raw(`<h1>`)
		h.text(title)
		h.raw(`</h1>`)
		if len(d.Errors) > 0 {
			h.raw(`<p class="error">Please fix the highlighted fields.</p>`)
		}
		h.raw(`<form method="post" action="`)
		h.text(action)
		h.raw(`">`)
		formField(h, d, "title", "Title", d.Values.Title, false)
		formField(h, d, "ingredients", "Ingredients", d.Values.Ingredients, true)
		formField(h, d, "method", "Method", d.Values.Method, true)
		h.raw(`<button type="submit">Save</button></form>`)
	})}
}

func errorPage(d ErrorData) page {
	return page{title: "Error", body: component(func(_ context.Context, h *html) {
		h.raw(`<h1>`)
		h.text(strconv.Itoa(d.Status))
		h.raw(`</h1><p>`)
		h.text(d.Message)
		h.raw(`</p><p><a href="/recipes">Back to recipes</a></p>`)
	})}
}
