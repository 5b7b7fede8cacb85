package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/hyperengineering/recipes/internal/recipe"
	"github.com/hyperengineering/recipes/internal/store"
	"github.com/hyperengineering/recipes/internal/store/storetest"
	"github.com/hyperengineering/recipes/internal/view"
	"github.com/hyperengineering/recipes/internal/view/viewtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	router http.Handler
	db     *store.DB
	repo   *recipe.SQLRepository
}

// newTestApp wires the router to a fresh database and the echo renderer.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := storetest.Open(t)
	repo := recipe.NewSQLRepository(db)
	return &testApp{
		router: NewRouter(NewHandler(repo, viewtest.Echo{}, "test")),
		db:     db,
		repo:   repo,
	}
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(t *testing.T, path string) *httptest.ResponseRecorder {
	return a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func (a *testApp) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	return a.do(t, req)
}

// insert seeds a row directly through the persistence adapter.
func (a *testApp) insert(t *testing.T, title, ingredients, method string) int64 {
	t.Helper()
	res, err := a.db.Run(context.Background(),
		"INSERT INTO recipes (title, ingredients, method) VALUES (?, ?, ?)",
		title, ingredients, method)
	require.NoError(t, err)
	return res.InsertedID
}

func (a *testApp) count(t *testing.T) int {
	t.Helper()
	var n int
	_, err := a.db.Get(context.Background(), "SELECT COUNT(*) FROM recipes", nil, &n)
	require.NoError(t, err)
	return n
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) viewtest.Rendered {
	t.Helper()
	got, err := viewtest.Decode(w.Body.Bytes())
	require.NoError(t, err, "body: %s", w.Body.String())
	return got
}

func recipeForm(title, ingredients, method string) url.Values {
	return url.Values{
		"title":       {title},
		"ingredients": {ingredients},
		"method":      {method},
	}
}

// --- GET / ---

func TestHome_Returns200WithHomeView(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "home", decodeView(t, w).View)
}

func TestHome_ListsRecentRecipes(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 7; i++ {
		app.insert(t, "r"+strconv.Itoa(i), "i", "m")
	}

	w := app.get(t, "/")
	require.Equal(t, http.StatusOK, w.Code)

	var data view.HomeData
	require.NoError(t, json.Unmarshal(decodeView(t, w).Locals, &data))
	assert.Equal(t, int64(7), data.RecipeCount)
	require.Len(t, data.Recent, homeRecentLimit)
	assert.Equal(t, "r6", data.Recent[0].Title)
}

// --- POST /recipes ---

func TestCreateRecipe_JSONBodyRedirectsAndPersists(t *testing.T) {
	app := newTestApp(t)
	newRecipe := map[string]string{
		"title":       "New Test Recipe",
		"ingredients": "New test ingredients",
		"method":      "New test method",
	}

	w := app.postJSON(t, "/recipes", newRecipe)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes", w.Header().Get("Location"))

	var title, ingredients, method string
	found, err := app.db.Get(context.Background(),
		"SELECT title, ingredients, method FROM recipes WHERE title = ?",
		[]any{newRecipe["title"]}, &title, &ingredients, &method)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, newRecipe["title"], title)
	assert.Equal(t, newRecipe["ingredients"], ingredients)
	assert.Equal(t, newRecipe["method"], method)
	assert.Equal(t, 1, app.count(t))
}

func TestCreateRecipe_FormBodyRedirectsAndPersists(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/recipes", recipeForm("Form Soup", "water", "boil"))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes", w.Header().Get("Location"))

	got, found, err := app.repo.FindByTitle(context.Background(), "Form Soup")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "boil", got.Method)
}

func TestCreateRecipe_TitleRoundTripsExactly(t *testing.T) {
	app := newTestApp(t)
	const title = "  Spaced Title  "

	w := app.postForm(t, "/recipes", recipeForm(title, "water", "boil"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes", w.Header().Get("Location"))

	got, found, err := app.repo.FindByTitle(context.Background(), title)
	require.NoError(t, err)
	require.True(t, found, "lookup by the submitted title should find the row")
	assert.Equal(t, title, got.Title)
}

func TestCreateRecipe_MultipartBody(t *testing.T) {
	app := newTestApp(t)
	body := "--XX\r\nContent-Disposition: form-data; name=\"title\"\r\n\r\nBread\r\n" +
		"--XX\r\nContent-Disposition: form-data; name=\"ingredients\"\r\n\r\nflour\r\n" +
		"--XX\r\nContent-Disposition: form-data; name=\"method\"\r\n\r\nbake\r\n--XX--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=XX")

	w := app.do(t, req)

	assert.Equal(t, http.StatusFound, w.Code)
	_, found, err := app.repo.FindByTitle(context.Background(), "Bread")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCreateRecipe_AnyContentRedirectsToRecipes(t *testing.T) {
	app := newTestApp(t)
	titles := []string{"a", "Crème brûlée", "'; DROP TABLE recipes; --", "<b>bold</b>"}

	for _, title := range titles {
		w := app.postForm(t, "/recipes", recipeForm(title, "i", "m"))
		assert.Equal(t, http.StatusFound, w.Code, title)
		assert.Equal(t, "/recipes", w.Header().Get("Location"), title)

		got, found, err := app.repo.FindByTitle(context.Background(), title)
		require.NoError(t, err)
		require.True(t, found, title)
		assert.Equal(t, title, got.Title)
	}
	assert.Equal(t, len(titles), app.count(t))
}

func TestCreateRecipe_MissingFieldsRerendersForm(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/recipes", url.Values{"title": {"Only a title"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	rendered := decodeView(t, w)
	assert.Equal(t, "recipe_form", rendered.View)

	var data view.FormData
	require.NoError(t, json.Unmarshal(rendered.Locals, &data))
	assert.Equal(t, "Only a title", data.Values.Title)
	require.Len(t, data.Errors, 2)
	assert.Equal(t, "ingredients", data.Errors[0].Field)
	assert.Equal(t, "method", data.Errors[1].Field)
	assert.Equal(t, 0, app.count(t))
}

func TestCreateRecipe_MalformedJSON(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	w := app.do(t, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", decodeView(t, w).View)
	assert.Equal(t, 0, app.count(t))
}

// --- POST /recipes/{id}/delete ---

func TestDeleteRecipe_RemovesRowAndRedirects(t *testing.T) {
	app := newTestApp(t)
	id := app.insert(t, "To Be Deleted", "delete ingredients", "delete method")

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/recipes/"+strconv.FormatInt(id, 10)+"/delete", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes", w.Header().Get("Location"))

	var title string
	found, err := app.db.Get(context.Background(), "SELECT title FROM recipes WHERE id = ?", []any{id}, &title)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteRecipe_LeavesOtherRows(t *testing.T) {
	app := newTestApp(t)
	keep := app.insert(t, "Keep", "i", "m")
	gone := app.insert(t, "Gone", "i", "m")

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/recipes/"+strconv.FormatInt(gone, 10)+"/delete", nil))
	require.Equal(t, http.StatusFound, w.Code)

	_, found, err := app.repo.FindByID(context.Background(), keep)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, app.count(t))
}

func TestDeleteRecipe_MissingIDStillRedirects(t *testing.T) {
	app := newTestApp(t)
	app.insert(t, "Keep", "i", "m")

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/recipes/9999/delete", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes", w.Header().Get("Location"))
	assert.Equal(t, 1, app.count(t))
}

func TestDeleteRecipe_OutOfRangeIDStillRedirects(t *testing.T) {
	app := newTestApp(t)
	app.insert(t, "Keep", "i", "m")

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/recipes/99999999999999999999/delete", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes", w.Header().Get("Location"))
	assert.Equal(t, 1, app.count(t))
}

func TestDeleteRecipe_NonNumericIDIsNotFound(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/recipes/abc/delete", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Read paths ---

func TestListRecipes_RendersListWithQuery(t *testing.T) {
	app := newTestApp(t)
	app.insert(t, "Tomato Soup", "i", "m")
	app.insert(t, "Bread", "i", "m")

	w := app.get(t, "/recipes?q=soup")

	require.Equal(t, http.StatusOK, w.Code)
	rendered := decodeView(t, w)
	assert.Equal(t, "recipes", rendered.View)

	var data view.ListData
	require.NoError(t, json.Unmarshal(rendered.Locals, &data))
	assert.Equal(t, "soup", data.Query)
	require.Len(t, data.Recipes, 1)
	assert.Equal(t, "Tomato Soup", data.Recipes[0].Title)
}

func TestNewRecipeForm(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/recipes/new")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "recipe_form", decodeView(t, w).View)
}

func TestShowRecipe_FoundAndMissing(t *testing.T) {
	app := newTestApp(t)
	id := app.insert(t, "Soup", "water", "boil")

	w := app.get(t, "/recipes/"+strconv.FormatInt(id, 10))
	require.Equal(t, http.StatusOK, w.Code)
	rendered := decodeView(t, w)
	assert.Equal(t, "recipe", rendered.View)

	var data view.RecipeData
	require.NoError(t, json.Unmarshal(rendered.Locals, &data))
	assert.Equal(t, recipe.Recipe{ID: id, Title: "Soup", Ingredients: "water", Method: "boil"}, data.Recipe)

	w = app.get(t, "/recipes/424242")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", decodeView(t, w).View)
}

func TestEditRecipeForm_PrefillsValues(t *testing.T) {
	app := newTestApp(t)
	id := app.insert(t, "Soup", "water", "boil")

	w := app.get(t, "/recipes/"+strconv.FormatInt(id, 10)+"/edit")
	require.Equal(t, http.StatusOK, w.Code)

	var data view.FormData
	require.NoError(t, json.Unmarshal(decodeView(t, w).Locals, &data))
	assert.Equal(t, id, data.ID)
	assert.Equal(t, "water", data.Values.Ingredients)
}

// --- POST /recipes/{id} ---

func TestUpdateRecipe_RedirectsAndPersists(t *testing.T) {
	app := newTestApp(t)
	id := app.insert(t, "Soup", "water", "boil")

	w := app.postForm(t, "/recipes/"+strconv.FormatInt(id, 10), recipeForm("Better Soup", "stock", "simmer"))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes", w.Header().Get("Location"))

	got, found, err := app.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Better Soup", got.Title)
}

func TestUpdateRecipe_MissingIDIsNotFound(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/recipes/77", recipeForm("t", "i", "m"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, app.count(t))
}

func TestUpdateRecipe_InvalidKeepsRow(t *testing.T) {
	app := newTestApp(t)
	id := app.insert(t, "Soup", "water", "boil")

	w := app.postForm(t, "/recipes/"+strconv.FormatInt(id, 10), recipeForm("", "stock", "simmer"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	got, _, err := app.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)
}

// --- Routing ---

func TestUnknownRoute_RendersNotFound(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", decodeView(t, w).View)
}

func TestWrongMethod_RendersMethodNotAllowed(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest(http.MethodPut, "/recipes", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_WithTemplRenderer(t *testing.T) {
	db := storetest.Open(t)
	repo := recipe.NewSQLRepository(db)
	router := NewRouter(NewHandler(repo, view.NewTemplRenderer(), "test"))
	_, err := repo.Create(context.Background(), recipe.NewRecipe{Title: "Soup", Ingredients: "water", Method: "boil"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Soup")
}
